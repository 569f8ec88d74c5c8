package extract

import (
	"errors"
	"testing"

	"github.com/fantasycs/mapscore/internal/model"
)

func starts(ticks ...int) []model.FreezeEndEvent {
	out := make([]model.FreezeEndEvent, len(ticks))
	for i, t := range ticks {
		out[i] = model.FreezeEndEvent{Tick: t}
	}
	return out
}

func end(tick int, winner string) model.RoundEndEvent {
	return model.RoundEndEvent{Tick: tick, WinnerRaw: winner}
}

func TestSegmentRounds_PairsStartsWithFirstLaterEnd(t *testing.T) {
	table := &model.EventTable{
		FreezeEnds: starts(100, 5000, 9000),
		RoundEnds: []model.RoundEndEvent{
			end(4000, "T"),
			end(8000, "CT"),
			end(12000, "T"),
		},
	}

	rounds, err := SegmentRounds(table)
	if err != nil {
		t.Fatalf("SegmentRounds: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(rounds))
	}

	want := []model.Round{
		{Index: 0, StartTick: 100, EndTick: 4000, Winner: model.SideT},
		{Index: 1, StartTick: 5000, EndTick: 8000, Winner: model.SideCT},
		{Index: 2, StartTick: 9000, EndTick: 12000, Winner: model.SideT},
	}
	for i, r := range rounds {
		if r != want[i] {
			t.Errorf("round %d = %+v, want %+v", i, r, want[i])
		}
	}
}

func TestSegmentRounds_UnsortedInputsAndDuplicateStarts(t *testing.T) {
	table := &model.EventTable{
		FreezeEnds: starts(5000, 100, 5000, 100),
		RoundEnds: []model.RoundEndEvent{
			end(8000, "CT"),
			end(4000, "T"),
		},
	}

	rounds, err := SegmentRounds(table)
	if err != nil {
		t.Fatalf("SegmentRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds after dedup, got %d", len(rounds))
	}
	if rounds[0].StartTick != 100 || rounds[0].EndTick != 4000 {
		t.Errorf("round 0 = %+v, want start 100 end 4000", rounds[0])
	}
	if rounds[1].StartTick != 5000 || rounds[1].EndTick != 8000 {
		t.Errorf("round 1 = %+v, want start 5000 end 8000", rounds[1])
	}
}

func TestSegmentRounds_DuplicateEndTick_LastRecordWins(t *testing.T) {
	table := &model.EventTable{
		FreezeEnds: starts(100),
		RoundEnds: []model.RoundEndEvent{
			end(4000, "T"),
			end(4000, "CT"),
		},
	}

	rounds, err := SegmentRounds(table)
	if err != nil {
		t.Fatalf("SegmentRounds: %v", err)
	}
	if rounds[0].Winner != model.SideCT {
		t.Errorf("winner = %v, want CT (last record at the tick)", rounds[0].Winner)
	}
}

func TestSegmentRounds_TrailingStartDropped(t *testing.T) {
	table := &model.EventTable{
		FreezeEnds: starts(100, 5000),
		RoundEnds:  []model.RoundEndEvent{end(4000, "T")},
	}

	rounds, err := SegmentRounds(table)
	if err != nil {
		t.Fatalf("SegmentRounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("expected trailing start to be dropped, got %d rounds", len(rounds))
	}
}

func TestSegmentRounds_MissingMarkersFatal(t *testing.T) {
	noStarts := &model.EventTable{RoundEnds: []model.RoundEndEvent{end(4000, "T")}}
	if _, err := SegmentRounds(noStarts); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("no starts: err = %v, want ErrInsufficientData", err)
	}

	noEnds := &model.EventTable{FreezeEnds: starts(100)}
	if _, err := SegmentRounds(noEnds); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("no ends: err = %v, want ErrInsufficientData", err)
	}

	// Starts exist but every one of them follows the last end.
	allTrailing := &model.EventTable{
		FreezeEnds: starts(9000),
		RoundEnds:  []model.RoundEndEvent{end(4000, "T")},
	}
	if _, err := SegmentRounds(allTrailing); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("all trailing: err = %v, want ErrInsufficientData", err)
	}
}

func TestSegmentRounds_UnknownWinnerKept(t *testing.T) {
	table := &model.EventTable{
		FreezeEnds: starts(100),
		RoundEnds:  []model.RoundEndEvent{end(4000, "whatever")},
	}
	rounds, err := SegmentRounds(table)
	if err != nil {
		t.Fatalf("SegmentRounds: %v", err)
	}
	if rounds[0].Winner != model.SideUnknown {
		t.Errorf("winner = %v, want SideUnknown", rounds[0].Winner)
	}
}

func TestRoundIndexLookup(t *testing.T) {
	rounds := []model.Round{
		{Index: 0, StartTick: 100, EndTick: 4000},
		{Index: 1, StartTick: 5000, EndTick: 8000},
	}
	ri := newRoundIndex(rounds)

	cases := []struct {
		tick int
		want int
	}{
		{99, -1},
		{100, 0},
		{4000, 0},
		{4500, -1}, // buy time between rounds
		{5000, 1},
		{8000, 1},
		{8001, -1},
	}
	for _, c := range cases {
		if got := ri.lookup(c.tick); got != c.want {
			t.Errorf("lookup(%d) = %d, want %d", c.tick, got, c.want)
		}
	}
}
