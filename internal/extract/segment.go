// Package extract reconstructs discrete rounds from a raw event table and
// derives per-player and per-team aggregates for one map. Everything here is
// a pure, deterministic transformation over in-memory slices; callers get
// identical output for identical input.
package extract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fantasycs/mapscore/internal/event"
	"github.com/fantasycs/mapscore/internal/model"
)

// ErrInsufficientData marks an event table that cannot produce even one
// round; downstream scoring depends on at least one valid round, so this is
// fatal rather than best-effort.
var ErrInsufficientData = errors.New("insufficient data")

// SegmentRounds pairs round-start markers with round-end records into
// ordered, non-overlapping rounds. Each start is matched to the first end
// record strictly after it; a trailing start with no matching end is dropped
// (matches are often recorded mid-round). The winner side of a round comes
// from the last end record observed at the matched tick, which defends
// against recorders that emit duplicate round_end rows.
func SegmentRounds(table *model.EventTable) ([]model.Round, error) {
	if len(table.FreezeEnds) == 0 {
		return nil, fmt.Errorf("%w: no round_freeze_end events", ErrInsufficientData)
	}
	if len(table.RoundEnds) == 0 {
		return nil, fmt.Errorf("%w: no round_end events", ErrInsufficientData)
	}

	startSet := make(map[int]struct{}, len(table.FreezeEnds))
	for _, fe := range table.FreezeEnds {
		startSet[fe.Tick] = struct{}{}
	}
	starts := make([]int, 0, len(startSet))
	for t := range startSet {
		starts = append(starts, t)
	}
	sort.Ints(starts)

	ends := make([]model.RoundEndEvent, len(table.RoundEnds))
	copy(ends, table.RoundEnds)
	sort.SliceStable(ends, func(i, j int) bool { return ends[i].Tick < ends[j].Tick })

	endTicks := make([]int, len(ends))
	for i, e := range ends {
		endTicks[i] = e.Tick
	}

	var rounds []model.Round
	for _, s := range starts {
		j := sort.Search(len(endTicks), func(i int) bool { return endTicks[i] > s })
		if j == len(endTicks) {
			continue // unfinished trailing round
		}
		endTick := endTicks[j]

		// Last record at this tick wins.
		last := ends[j]
		for k := j + 1; k < len(ends) && ends[k].Tick == endTick; k++ {
			last = ends[k]
		}

		rounds = append(rounds, model.Round{
			Index:     len(rounds),
			StartTick: s,
			EndTick:   endTick,
			Winner:    event.NormalizeWinner(last.WinnerRaw),
		})
	}

	if len(rounds) == 0 {
		return nil, fmt.Errorf("%w: no start marker pairs with an end marker", ErrInsufficientData)
	}
	return rounds, nil
}

// roundIndex answers "which round does this tick belong to" via binary
// search over start ticks. Ticks after a round's end but before the next
// start (buy time, timeouts) belong to no round.
type roundIndex struct {
	starts []int
	ends   []int
}

func newRoundIndex(rounds []model.Round) *roundIndex {
	ri := &roundIndex{
		starts: make([]int, len(rounds)),
		ends:   make([]int, len(rounds)),
	}
	for i, r := range rounds {
		ri.starts[i] = r.StartTick
		ri.ends[i] = r.EndTick
	}
	return ri
}

// lookup returns the round index containing tick, or -1.
func (ri *roundIndex) lookup(tick int) int {
	i := sort.Search(len(ri.starts), func(j int) bool { return ri.starts[j] > tick }) - 1
	if i < 0 {
		return -1
	}
	if tick > ri.ends[i] {
		return -1
	}
	return i
}
