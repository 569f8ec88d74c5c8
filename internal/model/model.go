package model

// Side is the non-persistent attacker/defender role a team occupies for a
// round. It swaps meaning at halftime, so it never identifies a team across
// the whole map. The numeric values match the team_num encoding demo event
// streams use.
type Side int

const (
	SideUnknown Side = 0
	SideT       Side = 2
	SideCT      Side = 3
)

func (s Side) String() string {
	switch s {
	case SideT:
		return "T"
	case SideCT:
		return "CT"
	default:
		return "?"
	}
}

// Opposite returns the other playable side, or SideUnknown.
func (s Side) Opposite() Side {
	switch s {
	case SideT:
		return SideCT
	case SideCT:
		return SideT
	default:
		return SideUnknown
	}
}

// ---- Raw event table ----
//
// The event table is the core's only input: typed records produced at the
// system boundary (demo adapter or tests). All numeric coercion happens
// before these structs are built; nothing downstream parses strings except
// the winner-code normalizer, which exists exactly for that one field.

// FreezeEndEvent marks the start of live play for a round.
type FreezeEndEvent struct {
	Tick int
}

// RoundEndEvent carries the raw winner code as recorded, which may be
// "T"/"CT", "2"/"3", a legacy "0"/"1", or garbage.
type RoundEndEvent struct {
	Tick      int
	WinnerRaw string
}

// DeathEvent is one player_death record. AttackerID and AssisterID are 0
// when the credit belongs to the world (fall damage, bomb) or nobody.
type DeathEvent struct {
	Tick          int
	VictimID      uint64
	AttackerID    uint64
	AssisterID    uint64
	Headshot      bool
	AssistedFlash bool
}

// HurtEvent is one player_hurt record with strictly-typed damage.
type HurtEvent struct {
	Tick       int
	AttackerID uint64
	VictimID   uint64
	Damage     float64
	Weapon     string
}

// MembershipSample is one (player, side) observation taken at a round-start
// tick. ClanName is the team name the player's side carried at that instant
// and may be empty on demos without clan tags.
type MembershipSample struct {
	Tick     int
	PlayerID uint64
	Name     string
	Side     Side
	ClanName string
}

// EventTable is the full raw input for one map. Slices are not guaranteed
// to be tick-sorted; extraction sorts what it needs. SourceHash identifies
// the recording the table came from and doubles as the idempotency key for
// persisted results.
type EventTable struct {
	MapName     string
	SourceHash  string
	FreezeEnds  []FreezeEndEvent
	RoundEnds   []RoundEndEvent
	Deaths      []DeathEvent
	Hurts       []HurtEvent
	Memberships []MembershipSample
}

// ---- Extraction output ----

// Round is one segmented play interval. Winner is SideUnknown when the end
// record carried an unparseable code.
type Round struct {
	Index     int
	StartTick int
	EndTick   int
	Winner    Side
}

// Member is a player's resolved identity within one round.
type Member struct {
	Name string
	Side Side
}

// RoundMembership maps player id → (name, side) for one round, built from
// membership samples at the round-start tick.
type RoundMembership map[uint64]Member

// PlayerMapStats is the per-player aggregate for one map. It is mutated
// additively during extraction and never after finalization.
type PlayerMapStats struct {
	SteamID uint64
	Name    string

	// TeamName is the player's persistent team as voted from the clan names
	// observed across their membership samples; empty when never observed.
	TeamName string

	RoundsPlayed int

	Kills   int
	Deaths  int
	Assists int

	Headshots    int
	FlashAssists int

	OpeningKills  int
	OpeningDeaths int

	MK3K int
	MK4K int
	MK5K int

	CL1v2 int
	CL1v3 int
	CL1v4 int
	CL1v5 int

	UtilityDamage float64
	ADR           float64

	// Rating2 is an externally supplied composite rating (HLTV-style); it is
	// not derivable from the event table and stays nil unless imported.
	Rating2 *float64
}

// HSPercent returns headshot kills as a percentage of kills, 0 when the
// player has no kills.
func (s *PlayerMapStats) HSPercent() float64 {
	if s.Kills == 0 {
		return 0
	}
	return float64(s.Headshots) / float64(s.Kills) * 100
}

// KDRatio returns kills/deaths, or plain kills when deaths is zero.
func (s *PlayerMapStats) KDRatio() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills)
	}
	return float64(s.Kills) / float64(s.Deaths)
}

// SideScore is a per-side round-win tally. Sides rotate at halftime, so the
// raw map-level SideScore is a consistency check, not a team score.
type SideScore struct {
	T  int
	CT int
}

// HalfScore buckets named-team round wins by match phase.
type HalfScore struct {
	FirstHalf  map[string]int
	SecondHalf map[string]int
	Overtime   map[string]int
}

// DrawMarker is the explicit tied-outcome value for winner fields; it is
// reported instead of guessing when totals are equal.
const DrawMarker = "DRAW"

// MapResult is the complete output of extraction for one map.
type MapResult struct {
	MapName    string
	RoundCount int

	SideScore  SideScore
	WinnerSide string // "T", "CT" or DrawMarker

	TeamScore       map[string]int
	WinnerTeam      string // team name, DrawMarker, or "" when no team names resolved
	HalfScore       HalfScore
	SideScoreByTeam map[string]SideScore

	Players []PlayerMapStats
}
