package extract

import (
	"sort"

	"github.com/fantasycs/mapscore/internal/model"
)

// utilityWeapons is the grenade/incendiary class whose damage counts toward
// utility damage. "inferno" is the burn entity molotov and incendiary fires
// spawn.
var utilityWeapons = map[string]struct{}{
	"hegrenade":  {},
	"molotov":    {},
	"incgrenade": {},
	"inferno":    {},
}

// accumulator carries per-player state through the aggregation passes. It is
// the only mutable state in extraction and is confined to a single Extract
// call.
type accumulator struct {
	stats       map[uint64]*model.PlayerMapStats
	totalDamage map[uint64]float64
	names       map[uint64]string
}

func newAccumulator(samples []model.MembershipSample) *accumulator {
	acc := &accumulator{
		stats:       make(map[uint64]*model.PlayerMapStats),
		totalDamage: make(map[uint64]float64),
		names:       make(map[uint64]string),
	}
	for _, s := range samples {
		if s.Name != "" {
			acc.names[s.PlayerID] = s.Name
		}
	}
	return acc
}

// get returns the player's accumulator record, creating it on first
// reference.
func (acc *accumulator) get(id uint64, nameHint string) *model.PlayerMapStats {
	ps, ok := acc.stats[id]
	if !ok {
		name := nameHint
		if name == "" {
			name = acc.names[id]
		}
		ps = &model.PlayerMapStats{SteamID: id, Name: name}
		acc.stats[id] = ps
	}
	return ps
}

// Extract runs the full pipeline over one map's event table: segmentation,
// side/team reconciliation, and per-player aggregation. The only error it
// returns is ErrInsufficientData (no usable rounds); individually malformed
// events are skipped, not fatal.
func Extract(table *model.EventTable) (*model.MapResult, error) {
	rounds, err := SegmentRounds(table)
	if err != nil {
		return nil, err
	}

	memberships, sideTeams := BuildMemberships(rounds, table.Memberships)
	acc := newAccumulator(table.Memberships)

	// Participation pass.
	for ridx := range rounds {
		for id, m := range memberships[ridx] {
			acc.get(id, m.Name).RoundsPlayed++
		}
	}

	ri := newRoundIndex(rounds)

	// Duel pass: bucket deaths per round while walking them once.
	deathsByRound := make([][]model.DeathEvent, len(rounds))
	for _, d := range table.Deaths {
		ridx := ri.lookup(d.Tick)
		if ridx < 0 {
			continue
		}
		deathsByRound[ridx] = append(deathsByRound[ridx], d)

		if d.VictimID != 0 {
			acc.get(d.VictimID, "").Deaths++
		}
		if d.AttackerID != 0 {
			ps := acc.get(d.AttackerID, "")
			ps.Kills++
			if d.Headshot {
				ps.Headshots++
			}
		}
		if d.AssisterID != 0 {
			ps := acc.get(d.AssisterID, "")
			ps.Assists++
			if d.AssistedFlash {
				ps.FlashAssists++
			}
		}
	}

	// Damage pass: only opposing-side, positive damage counts.
	for _, h := range table.Hurts {
		ridx := ri.lookup(h.Tick)
		if ridx < 0 || h.AttackerID == 0 || h.VictimID == 0 {
			continue
		}
		a, aok := memberships[ridx][h.AttackerID]
		v, vok := memberships[ridx][h.VictimID]
		if !aok || !vok || a.Side == v.Side {
			continue
		}
		if h.Damage <= 0 {
			continue
		}
		acc.totalDamage[h.AttackerID] += h.Damage
		if _, util := utilityWeapons[h.Weapon]; util {
			acc.get(h.AttackerID, "").UtilityDamage += h.Damage
		}
	}

	// Per-round detections.
	for ridx := range rounds {
		dr := deathsByRound[ridx]
		sort.SliceStable(dr, func(i, j int) bool { return dr[i].Tick < dr[j].Tick })

		creditOpening(acc, dr)
		creditMultiKills(acc, dr)
		creditClutch(acc, dr, memberships[ridx], rounds[ridx].Winner)
	}

	// Finalization: ADR over rounds the player actually recorded, falling
	// back to the map's round count when membership samples missed them.
	for id, ps := range acc.stats {
		rp := ps.RoundsPlayed
		if rp == 0 {
			rp = len(rounds)
		}
		if rp == 0 {
			continue
		}
		ps.ADR = acc.totalDamage[id] / float64(rp)
	}

	// Persistent-team vote: the clan name a player was observed under most
	// often wins, first-observed name breaking ties.
	teamVotes := make(map[uint64]*tally)
	for _, s := range table.Memberships {
		if s.ClanName == "" {
			continue
		}
		t := teamVotes[s.PlayerID]
		if t == nil {
			t = newTally()
			teamVotes[s.PlayerID] = t
		}
		t.add(s.ClanName)
	}
	for id, ps := range acc.stats {
		if t := teamVotes[id]; t != nil {
			ps.TeamName = t.winner()
		}
	}

	summary := ReconcileTeams(rounds, sideTeams)

	res := &model.MapResult{
		MapName:         table.MapName,
		RoundCount:      len(rounds),
		TeamScore:       summary.TeamScore,
		WinnerTeam:      summary.WinnerTeam,
		HalfScore:       summary.HalfScore,
		SideScoreByTeam: summary.SideScoreByTeam,
	}

	for _, r := range rounds {
		switch r.Winner {
		case model.SideT:
			res.SideScore.T++
		case model.SideCT:
			res.SideScore.CT++
		}
	}
	switch {
	case res.SideScore.T > res.SideScore.CT:
		res.WinnerSide = model.SideT.String()
	case res.SideScore.CT > res.SideScore.T:
		res.WinnerSide = model.SideCT.String()
	default:
		res.WinnerSide = model.DrawMarker
	}

	res.Players = make([]model.PlayerMapStats, 0, len(acc.stats))
	for _, ps := range acc.stats {
		res.Players = append(res.Players, *ps)
	}
	sort.Slice(res.Players, func(i, j int) bool {
		if res.Players[i].Kills != res.Players[j].Kills {
			return res.Players[i].Kills > res.Players[j].Kills
		}
		return res.Players[i].SteamID < res.Players[j].SteamID
	})

	return res, nil
}

// creditOpening credits the single earliest death of the round as the
// opening duel.
func creditOpening(acc *accumulator, dr []model.DeathEvent) {
	if len(dr) == 0 {
		return
	}
	first := dr[0]
	if first.VictimID != 0 {
		acc.get(first.VictimID, "").OpeningDeaths++
	}
	if first.AttackerID != 0 {
		acc.get(first.AttackerID, "").OpeningKills++
	}
}

// creditMultiKills buckets each attacker's in-round kill count into exactly
// one tier: 3 kills, 4 kills, or 5-plus.
func creditMultiKills(acc *accumulator, dr []model.DeathEvent) {
	perAttacker := make(map[uint64]int)
	for _, d := range dr {
		if d.AttackerID != 0 {
			perAttacker[d.AttackerID]++
		}
	}
	for id, k := range perAttacker {
		ps := acc.get(id, "")
		switch {
		case k == 3:
			ps.MK3K++
		case k == 4:
			ps.MK4K++
		case k >= 5:
			ps.MK5K++
		}
	}
}

// creditClutch simulates shrinking alive-sets per side as deaths land in
// tick order. The first instant a side drops to exactly one survivor while
// the opposing side still has 2–5 alive records that side's clutch
// candidate; only one candidate per side per round. The candidate converts
// to a clutch win only when their side won the round and they are still
// alive at its end.
func creditClutch(acc *accumulator, dr []model.DeathEvent, members model.RoundMembership, winner model.Side) {
	alive := map[model.Side]map[uint64]struct{}{
		model.SideT:  {},
		model.SideCT: {},
	}
	for id, m := range members {
		if m.Side == model.SideT || m.Side == model.SideCT {
			alive[m.Side][id] = struct{}{}
		}
	}

	type candidate struct {
		playerID  uint64
		opponents int
	}
	candidates := map[model.Side]*candidate{}

	for _, d := range dr {
		m, ok := members[d.VictimID]
		if !ok {
			continue
		}
		delete(alive[m.Side], d.VictimID)

		for _, side := range []model.Side{model.SideT, model.SideCT} {
			if candidates[side] != nil || len(alive[side]) != 1 {
				continue
			}
			opp := len(alive[side.Opposite()])
			if opp < 2 || opp > 5 {
				continue
			}
			var last uint64
			for id := range alive[side] {
				last = id
			}
			candidates[side] = &candidate{playerID: last, opponents: opp}
		}
	}

	if winner != model.SideT && winner != model.SideCT {
		return
	}
	cand := candidates[winner]
	if cand == nil {
		return
	}
	if _, stillAlive := alive[winner][cand.playerID]; !stillAlive {
		return
	}

	ps := acc.get(cand.playerID, "")
	switch cand.opponents {
	case 2:
		ps.CL1v2++
	case 3:
		ps.CL1v3++
	case 4:
		ps.CL1v4++
	case 5:
		ps.CL1v5++
	}
}
