package scoring

import (
	"math"

	"github.com/fantasycs/mapscore/internal/model"
	"github.com/fantasycs/mapscore/internal/roles"
)

// Breakdown is the audit record returned with every point total. It holds
// enough to verify the score without recomputation: components before and
// after the role modifier, the role's effect record, the applied round
// factor, the team bonus, and the clamped final value. Component values are
// rounded to three decimals for readability; the authoritative score is the
// two-decimal points value.
type Breakdown struct {
	ComponentsBefore map[string]float64 `json:"components_before"`
	ComponentsAfter  map[string]float64 `json:"components_after_role"`
	Role             roles.RoleEffect   `json:"role"`
	RoundFactor      float64            `json:"round_factor"`
	TeamWinBonus     float64            `json:"team_win_bonus"`
	Final            float64            `json:"final"`
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// adrBonus is a step function over damage per round: a solid bonus at 85+,
// a small one at 70+, a penalty under 50.
func adrBonus(adr float64, p Params) float64 {
	switch {
	case adr >= 85:
		return p.ADRBonus85
	case adr >= 70:
		return p.ADRBonus70
	case adr < 50:
		return p.ADRPenalty50
	default:
		return 0
	}
}

// ratingBonus is a step function over the external composite rating; a nil
// rating contributes nothing.
func ratingBonus(rating2 *float64, p Params) float64 {
	if rating2 == nil {
		return 0
	}
	switch {
	case *rating2 >= 1.20:
		return p.RatingBonus120
	case *rating2 >= 1.00:
		return p.RatingBonus100
	case *rating2 < 0.90:
		return p.RatingPenalty90
	default:
		return 0
	}
}

// Compute turns one player's map aggregate into fantasy points.
//
// Pipeline: weighted pre-role components → role modifier → sum → round-length
// normalization → team-win bonus → hard clamp to [PtsMin, PtsMax]. A zero
// winnerTeamID means the map winner is unknown and never grants the bonus.
// The stat record is read-only; two calls with identical inputs produce
// identical results.
func Compute(stat *model.PlayerMapStats, playedRounds int, winnerTeamID, playerTeamID int64, role string, p Params) (float64, Breakdown) {
	before := roles.Components{
		"kills":       float64(stat.Kills) * p.Kill,
		"assists":     float64(stat.Assists) * p.Assist,
		"deaths":      float64(stat.Deaths) * p.Death,
		"opening_pos": float64(stat.OpeningKills) * p.OpenKill,
		"opening_neg": float64(stat.OpeningDeaths) * p.OpenDeath,
		"multi": float64(stat.MK3K)*p.MK3K +
			float64(stat.MK4K)*p.MK4K +
			float64(stat.MK5K)*p.MK5K,
		"clutch": float64(stat.CL1v2)*p.CL1v2 +
			float64(stat.CL1v3)*p.CL1v3 +
			float64(stat.CL1v4)*p.CL1v4 +
			float64(stat.CL1v5)*p.CL1v5,
		"adr_rt": adrBonus(stat.ADR, p) + ratingBonus(stat.Rating2, p),
		"bonus":  0.0, // pocket for fixed role top-ups
	}

	after, roleMeta := roles.Apply(role, before, stat)

	base := 0.0
	for _, v := range after {
		base += v
	}

	rp := float64(playedRounds)
	if rp == 0 {
		rp = p.RoundBase
	}
	roundFactor := clamp(rp/p.RoundBase, p.RoundMin, p.RoundMax)

	teamBonus := 0.0
	if winnerTeamID != 0 && winnerTeamID == playerTeamID {
		teamBonus = p.TeamWinBonus
	}

	raw := base*roundFactor + teamBonus
	final := clamp(raw, p.PtsMin, p.PtsMax)

	bd := Breakdown{
		ComponentsBefore: round3Map(before),
		ComponentsAfter:  round3Map(after),
		Role:             roleMeta,
		RoundFactor:      round3(roundFactor),
		TeamWinBonus:     teamBonus,
		Final:            round3(final),
	}
	return round2(final), bd
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round3Map(c roles.Components) map[string]float64 {
	out := make(map[string]float64, len(c))
	for k, v := range c {
		out[k] = round3(v)
	}
	return out
}
