// Package demo reads a CS2 demo recording and flattens it into the raw
// event table the extraction pipeline consumes. It is the only package that
// touches demoinfocs; everything downstream works off model.EventTable.
package demo

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/fantasycs/mapscore/internal/event"
	"github.com/fantasycs/mapscore/internal/model"
)

// Parse reads the demo at path and returns its event table. Warmup activity
// is ignored; every live freeze end contributes a membership snapshot of the
// players on the server at that tick.
func Parse(path string) (*model.EventTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash demo: %w", err)
	}
	sourceHash := fmt.Sprintf("%x", h.Sum(nil))

	// Seek back to start for the parser.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	p := demoinfocs.NewParser(f)
	defer p.Close()

	table := &model.EventTable{SourceHash: sourceHash}

	live := func() bool {
		return !p.GameState().IsWarmupPeriod()
	}

	p.RegisterEventHandler(func(e events.RoundFreezetimeEnd) {
		if !live() {
			return
		}
		tick := p.GameState().IngameTick()
		table.FreezeEnds = append(table.FreezeEnds, model.FreezeEndEvent{Tick: tick})

		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil || pl.SteamID64 == 0 {
				continue
			}
			table.Memberships = append(table.Memberships, model.MembershipSample{
				Tick:     tick,
				PlayerID: pl.SteamID64,
				Name:     pl.Name,
				Side:     event.SideFromTeamNum(int(pl.Team)),
				ClanName: clanName(pl),
			})
		}
	})

	p.RegisterEventHandler(func(e events.RoundEnd) {
		if !live() {
			return
		}
		table.RoundEnds = append(table.RoundEnds, model.RoundEndEvent{
			Tick:      p.GameState().IngameTick(),
			WinnerRaw: winnerRaw(e.Winner),
		})
	})

	p.RegisterEventHandler(func(e events.Kill) {
		if !live() {
			return
		}
		if e.Victim == nil {
			return
		}
		d := model.DeathEvent{
			Tick:          p.GameState().IngameTick(),
			VictimID:      e.Victim.SteamID64,
			Headshot:      e.IsHeadshot,
			AssistedFlash: e.AssistedFlash,
		}
		// World kills (fall damage, burns from dead throwers) carry no
		// attacker; the table records 0 and aggregation skips the credit.
		if e.Killer != nil {
			d.AttackerID = e.Killer.SteamID64
		}
		if e.Assister != nil {
			d.AssisterID = e.Assister.SteamID64
		}
		table.Deaths = append(table.Deaths, d)
	})

	p.RegisterEventHandler(func(e events.PlayerHurt) {
		if !live() {
			return
		}
		if e.Attacker == nil || e.Player == nil {
			return
		}
		if e.Attacker.SteamID64 == e.Player.SteamID64 {
			return // ignore self-damage
		}
		table.Hurts = append(table.Hurts, model.HurtEvent{
			Tick:       p.GameState().IngameTick(),
			AttackerID: e.Attacker.SteamID64,
			VictimID:   e.Player.SteamID64,
			Damage:     float64(e.HealthDamage),
			Weapon:     weaponName(e.Weapon),
		})
	})

	if err := p.ParseToEnd(); err != nil {
		return nil, fmt.Errorf("parse demo: %w", err)
	}

	table.MapName = p.Header().MapName
	return table, nil
}

var mapNamePattern = regexp.MustCompile(`(?:de|cs|ar)_[a-z0-9]+`)

// MapNameFromPath guesses the map from the demo's filename, for recordings
// whose header omits it. Falls back to the bare filename.
func MapNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := mapNamePattern.FindString(strings.ToLower(base)); m != "" {
		return m
	}
	return base
}

// winnerRaw renders the round winner the way source servers log it, as the
// numeric team code. The normalizer turns it back into a side.
func winnerRaw(t common.Team) string {
	switch t {
	case common.TeamTerrorists:
		return "2"
	case common.TeamCounterTerrorists:
		return "3"
	default:
		return ""
	}
}

func clanName(pl *common.Player) string {
	if ts := pl.TeamState; ts != nil {
		return ts.ClanName()
	}
	return ""
}

// weaponName canonicalizes equipment names to the lowercase entity names the
// utility-damage classifier matches on.
func weaponName(w *common.Equipment) string {
	if w == nil {
		return ""
	}
	switch w.Type {
	case common.EqHE:
		return "hegrenade"
	case common.EqMolotov:
		return "molotov"
	case common.EqIncendiary:
		return "incgrenade"
	}
	return strings.ReplaceAll(strings.ToLower(w.Type.String()), " ", "")
}
