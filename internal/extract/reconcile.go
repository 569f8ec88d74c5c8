package extract

import (
	"github.com/fantasycs/mapscore/internal/model"
)

// fallbackHalfLength is the standard regulation half (MR12). Used when the
// side-swap scan cannot place the halftime boundary; a known approximation,
// not a guaranteed-correct detector.
const fallbackHalfLength = 12

// BuildMemberships resolves, for every round, which players occupied which
// side and which clan name each side carried. Membership samples are taken
// at round-start ticks; when several samples at one instant disagree on the
// clan name, the plurality of non-empty values wins (ties break toward the
// first value observed, keeping the result deterministic).
func BuildMemberships(rounds []model.Round, samples []model.MembershipSample) ([]model.RoundMembership, []map[model.Side]string) {
	tickToRound := make(map[int]int, len(rounds))
	for i, r := range rounds {
		tickToRound[r.StartTick] = i
	}

	memberships := make([]model.RoundMembership, len(rounds))
	sideTeams := make([]map[model.Side]string, len(rounds))
	for i := range rounds {
		memberships[i] = make(model.RoundMembership)
		sideTeams[i] = map[model.Side]string{model.SideT: "", model.SideCT: ""}
	}

	// Clan-name votes per (round, side).
	type voteKey struct {
		round int
		side  model.Side
	}
	votes := make(map[voteKey]*tally)

	for _, s := range samples {
		if s.Side != model.SideT && s.Side != model.SideCT {
			continue
		}
		ridx, ok := tickToRound[s.Tick]
		if !ok {
			continue
		}

		memberships[ridx][s.PlayerID] = model.Member{Name: s.Name, Side: s.Side}

		if s.ClanName == "" {
			continue
		}
		k := voteKey{ridx, s.Side}
		tl := votes[k]
		if tl == nil {
			tl = newTally()
			votes[k] = tl
		}
		tl.add(s.ClanName)
	}

	for k, tl := range votes {
		sideTeams[k.round][k.side] = tl.winner()
	}

	return memberships, sideTeams
}

// tally is a plurality vote over strings with a deterministic tie-break:
// when counts tie, the name observed first wins.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(name string) {
	if t.counts[name] == 0 {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

func (t *tally) winner() string {
	best, bestCount := "", 0
	for _, name := range t.order {
		if t.counts[name] > bestCount {
			best, bestCount = name, t.counts[name]
		}
	}
	return best
}

// TeamSummary is the reconciler's output: named-team scores, half/overtime
// breakdown, and the match winner at team level.
type TeamSummary struct {
	TeamScore       map[string]int
	SideScoreByTeam map[string]model.SideScore
	HalfScore       model.HalfScore
	WinnerTeam      string
	HalfSplit       int // index of the first second-half round
	OvertimeStart   int // index of the first overtime round, == len(rounds) when none
}

// ReconcileTeams maps round winner sides onto persistent team identities and
// detects the halftime and overtime boundaries by side-swap pattern.
//
// The base assignment is the earliest round where both sides carry a clan
// name. The second half starts at the first later round where the same two
// teams occupy swapped sides; overtime starts where sides return to the base
// assignment. Without detectable names the half boundary falls back to the
// standard round 12.
func ReconcileTeams(rounds []model.Round, sideTeams []map[model.Side]string) TeamSummary {
	n := len(rounds)

	sum := TeamSummary{
		TeamScore:       make(map[string]int),
		SideScoreByTeam: make(map[string]model.SideScore),
		HalfScore: model.HalfScore{
			FirstHalf:  make(map[string]int),
			SecondHalf: make(map[string]int),
			Overtime:   make(map[string]int),
		},
	}

	var baseT, baseCT string
	baseIdx := -1
	for i := 0; i < n; i++ {
		t, ct := sideTeams[i][model.SideT], sideTeams[i][model.SideCT]
		if t != "" && ct != "" {
			baseT, baseCT, baseIdx = t, ct, i
			break
		}
	}

	halfSplit := fallbackHalfLength
	if n <= fallbackHalfLength {
		halfSplit = n
	}
	if baseIdx >= 0 {
		for i := baseIdx + 1; i < n; i++ {
			t, ct := sideTeams[i][model.SideT], sideTeams[i][model.SideCT]
			if t != "" && ct != "" && t == baseCT && ct == baseT {
				halfSplit = i
				break
			}
		}
	}

	otStart := n
	if baseT != "" && baseCT != "" {
		for i := halfSplit + 1; i < n; i++ {
			t, ct := sideTeams[i][model.SideT], sideTeams[i][model.SideCT]
			if t != "" && ct != "" && t == baseT && ct == baseCT {
				otStart = i
				break
			}
		}
	}
	sum.HalfSplit = halfSplit
	sum.OvertimeStart = otStart

	for i, r := range rounds {
		w := r.Winner
		if w != model.SideT && w != model.SideCT {
			continue
		}
		name := sideTeams[i][w]
		if name == "" {
			continue // counts toward raw side tallies only
		}

		sum.TeamScore[name]++

		ss := sum.SideScoreByTeam[name]
		if w == model.SideT {
			ss.T++
		} else {
			ss.CT++
		}
		sum.SideScoreByTeam[name] = ss

		switch {
		case i < halfSplit:
			sum.HalfScore.FirstHalf[name]++
		case i < otStart:
			sum.HalfScore.SecondHalf[name]++
		default:
			sum.HalfScore.Overtime[name]++
		}
	}

	if len(sum.TeamScore) > 0 {
		max := 0
		for _, v := range sum.TeamScore {
			if v > max {
				max = v
			}
		}
		var tops []string
		for name, v := range sum.TeamScore {
			if v == max {
				tops = append(tops, name)
			}
		}
		if len(tops) == 1 {
			sum.WinnerTeam = tops[0]
		} else {
			sum.WinnerTeam = model.DrawMarker
		}
	}

	return sum
}
