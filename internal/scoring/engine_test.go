package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/fantasycs/mapscore/internal/model"
)

func ratingOf(v float64) *float64 { return &v }

// strongMap is a realistic good performance: 24 rounds, map won.
func strongMap() *model.PlayerMapStats {
	return &model.PlayerMapStats{
		RoundsPlayed:  24,
		Kills:         20,
		Deaths:        15,
		Assists:       5,
		OpeningKills:  3,
		OpeningDeaths: 2,
		MK3K:          1,
		CL1v2:         1,
		ADR:           88,
		Rating2:       ratingOf(1.21),
	}
}

func TestCompute_KnownValue(t *testing.T) {
	// kills 20, assists 2.5, deaths -7.5, opening +4.5 -2, multi 2,
	// clutch 3, adr_rt 3+4 = 7 → base 29.5; ×1.2 round factor +2 team
	// bonus = 37.4.
	points, bd := Compute(strongMap(), 24, 7, 7, "", DefaultParams())
	if points != 37.4 {
		t.Fatalf("points = %v, want 37.4", points)
	}
	if bd.RoundFactor != 1.2 {
		t.Errorf("round factor = %v, want 1.2", bd.RoundFactor)
	}
	if bd.TeamWinBonus != 2.0 {
		t.Errorf("team bonus = %v, want 2.0", bd.TeamWinBonus)
	}
	if bd.ComponentsBefore["adr_rt"] != 7.0 {
		t.Errorf("adr_rt = %v, want 7.0", bd.ComponentsBefore["adr_rt"])
	}
	if bd.ComponentsBefore["bonus"] != 0.0 {
		t.Errorf("bonus pocket must start at exactly 0, got %v", bd.ComponentsBefore["bonus"])
	}
}

func TestCompute_Idempotent(t *testing.T) {
	p1, b1 := Compute(strongMap(), 24, 7, 7, "AWPER", DefaultParams())
	p2, b2 := Compute(strongMap(), 24, 7, 7, "AWPER", DefaultParams())
	if p1 != p2 {
		t.Errorf("points differ: %v vs %v", p1, p2)
	}
	if !reflect.DeepEqual(b1, b2) {
		t.Error("breakdowns differ across identical calls")
	}
}

func TestCompute_ZeroStatsNeverDivides(t *testing.T) {
	// All-zero record with zero rounds: ADR 0 lands in the under-50
	// penalty, the round factor falls back to neutral.
	points, bd := Compute(&model.PlayerMapStats{}, 0, 0, 0, "", DefaultParams())
	if points != -1.0 {
		t.Errorf("points = %v, want -1.0", points)
	}
	if bd.RoundFactor != 1.0 {
		t.Errorf("round factor = %v, want neutral 1.0 for zero rounds", bd.RoundFactor)
	}
}

func TestCompute_ClampBounds(t *testing.T) {
	monster := &model.PlayerMapStats{
		RoundsPlayed: 30, Kills: 60, MK5K: 5, CL1v5: 3, ADR: 150, Rating2: ratingOf(2.0),
	}
	points, _ := Compute(monster, 30, 1, 1, "", DefaultParams())
	if points != 60.0 {
		t.Errorf("points = %v, want ceiling 60", points)
	}

	disaster := &model.PlayerMapStats{RoundsPlayed: 24, Deaths: 60, OpeningDeaths: 20}
	points, _ = Compute(disaster, 24, 1, 2, "", DefaultParams())
	if points != -20.0 {
		t.Errorf("points = %v, want floor -20", points)
	}
}

func TestCompute_RoundFactorClamped(t *testing.T) {
	_, bd := Compute(&model.PlayerMapStats{RoundsPlayed: 10}, 10, 0, 0, "", DefaultParams())
	if bd.RoundFactor != 0.85 {
		t.Errorf("10-round factor = %v, want floor 0.85", bd.RoundFactor)
	}
	_, bd = Compute(&model.PlayerMapStats{RoundsPlayed: 40}, 40, 0, 0, "", DefaultParams())
	if bd.RoundFactor != 1.25 {
		t.Errorf("40-round factor = %v, want ceiling 1.25", bd.RoundFactor)
	}
}

func TestCompute_TeamBonusRequiresKnownWinner(t *testing.T) {
	// Unknown map winner: no bonus even when ids match at zero.
	_, bd := Compute(strongMap(), 24, 0, 0, "", DefaultParams())
	if bd.TeamWinBonus != 0 {
		t.Errorf("bonus granted with unknown winner: %v", bd.TeamWinBonus)
	}

	_, bd = Compute(strongMap(), 24, 7, 8, "", DefaultParams())
	if bd.TeamWinBonus != 0 {
		t.Errorf("bonus granted to losing team: %v", bd.TeamWinBonus)
	}
}

func TestCompute_UnknownRoleWarnsWithoutChangingScore(t *testing.T) {
	plain, _ := Compute(strongMap(), 24, 7, 7, "", DefaultParams())
	ghost, bd := Compute(strongMap(), 24, 7, 7, "GHOST", DefaultParams())
	if plain != ghost {
		t.Errorf("unknown role changed score: %v vs %v", plain, ghost)
	}
	if bd.Role.Warning == "" {
		t.Error("expected unknown-role warning in breakdown")
	}
	if !reflect.DeepEqual(bd.ComponentsBefore, bd.ComponentsAfter) {
		t.Error("unknown role altered components")
	}
}

func TestCompute_RoleChangesScore(t *testing.T) {
	plain, _ := Compute(strongMap(), 24, 7, 7, "", DefaultParams())
	multi, bd := Compute(strongMap(), 24, 7, 7, "MULTIFRAGGER", DefaultParams())
	// One 3K at weight 2 scaled 1.25 adds 0.5 pre-factor: ×1.2 = +0.6.
	if got := math.Round((multi-plain)*100) / 100; got != 0.6 {
		t.Errorf("MULTIFRAGGER delta = %v, want 0.6", got)
	}
	if bd.ComponentsAfter["multi"] != 2.5 {
		t.Errorf("multi after role = %v, want 2.5", bd.ComponentsAfter["multi"])
	}
	if bd.ComponentsBefore["multi"] != 2.0 {
		t.Errorf("multi before role = %v, want 2.0", bd.ComponentsBefore["multi"])
	}
}

func TestAdrBonusSteps(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		adr  float64
		want float64
	}{
		{90, 3}, {85, 3}, {84.9, 1}, {70, 1}, {69.9, 0}, {50, 0}, {49.9, -1}, {0, -1},
	}
	for _, c := range cases {
		if got := adrBonus(c.adr, p); got != c.want {
			t.Errorf("adrBonus(%v) = %v, want %v", c.adr, got, c.want)
		}
	}
}

func TestRatingBonusSteps(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		rating *float64
		want   float64
	}{
		{ratingOf(1.30), 4}, {ratingOf(1.20), 4}, {ratingOf(1.10), 2},
		{ratingOf(1.00), 2}, {ratingOf(0.95), 0}, {ratingOf(0.89), -2},
		{nil, 0},
	}
	for _, c := range cases {
		if got := ratingBonus(c.rating, p); got != c.want {
			t.Errorf("ratingBonus(%v) = %v, want %v", c.rating, got, c.want)
		}
	}
}
