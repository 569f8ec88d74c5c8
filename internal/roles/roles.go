// Package roles implements the closed registry of fantasy role modifiers.
// A modifier is a pure function over the scoring component map: it copies
// the map, rescales or tops up a documented subset of existing components,
// and reports exactly what it did. The registry is self-contained:
// modifiers that need the round-length factor compute it
// from the stat record with local constants, so the package is testable
// without the scoring engine.
package roles

import (
	"fmt"
	"math"
	"sort"

	"github.com/fantasycs/mapscore/internal/model"
)

// Components maps component name (kills, deaths, assists, opening_pos,
// opening_neg, multi, clutch, adr_rt, bonus) to a running subtotal. The
// scoring engine seeds every key before any modifier runs; modifiers only
// scale or add to existing keys.
type Components map[string]float64

// Clone returns an independent copy.
func (c Components) Clone() Components {
	c2 := make(Components, len(c))
	for k, v := range c {
		c2[k] = v
	}
	return c2
}

// scale multiplies an existing component and returns its before/after pair.
// A missing key is a programmer error: the engine seeds the full map, and a
// modifier inventing keys would silently corrupt totals.
func (c Components) scale(key string, mult float64) (before, after float64) {
	v, ok := c[key]
	if !ok {
		panic(fmt.Sprintf("roles: unknown scoring component %q", key))
	}
	c[key] = v * mult
	return v, c[key]
}

// add tops up an existing component; same missing-key policy as scale.
func (c Components) add(key string, delta float64) (before, after float64) {
	v, ok := c[key]
	if !ok {
		panic(fmt.Sprintf("roles: unknown scoring component %q", key))
	}
	c[key] = v + delta
	return v, c[key]
}

// Effect describes one touch a modifier made: the component, the multiplier
// or additive delta, and the before/after values, plus any derived
// diagnostics (headshot percentage, normalized rates) for auditability.
type Effect struct {
	Target      string             `json:"target"`
	Mult        float64            `json:"mult,omitempty"`
	Add         float64            `json:"add,omitempty"`
	Before      float64            `json:"before"`
	After       float64            `json:"after"`
	By          string             `json:"by,omitempty"`
	Diagnostics map[string]float64 `json:"diagnostics,omitempty"`
}

// RoleEffect is the full application record attached to a scoring
// breakdown. Warning is set (and Effects stays empty) for unrecognized
// role codes.
type RoleEffect struct {
	Role    string   `json:"role,omitempty"`
	Effects []Effect `json:"effects"`
	Warning string   `json:"warning,omitempty"`
}

// Modifier transforms a component map without mutating its input.
type Modifier func(c Components, s *model.PlayerMapStats) (Components, []Effect)

// Round-length normalization, duplicated from the scoring defaults on
// purpose: the registry must not reach into engine configuration.
const (
	roundBase = 20.0
	roundMin  = 0.85
	roundMax  = 1.25
)

func roundFactor(playedRounds int) float64 {
	rp := float64(playedRounds)
	if rp == 0 {
		rp = roundBase
	}
	return math.Max(roundMin, math.Min(roundMax, rp/roundBase))
}

func rating2(s *model.PlayerMapStats) float64 {
	if s.Rating2 == nil {
		return 0
	}
	return *s.Rating2
}

// Multifragger amplifies multi-kill rounds only.
func roleMultifragger(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	before, after := c2.scale("multi", 1.25)
	return c2, []Effect{{Target: "multi", Mult: 1.25, Before: before, After: after}}
}

// HSMachine scales the kill subtotal by headshot discipline against a fixed
// 70% target.
func roleHSMachine(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	hsPct := 100.0 * float64(s.Headshots) / math.Max(1.0, float64(s.Kills))
	mult := 1.0
	switch {
	case hsPct >= 70.0:
		mult = 1.20
	case hsPct < 40.0:
		mult = 0.85
	}
	before, after := c2.scale("kills", mult)
	return c2, []Effect{{
		Target: "kills", Mult: mult, Before: before, After: after,
		Diagnostics: map[string]float64{"hs_pct": hsPct},
	}}
}

// EntryFragger pushes a round-normalized opening-kill rate into the bonus
// pocket (scaled by the same round-length factor the engine applies) and
// scales the opening-death penalty by whether the opening attempts worked
// out on balance.
func roleEntryFragger(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	rf := roundFactor(s.RoundsPlayed)
	okPerRound := float64(s.OpeningKills) / math.Max(1.0, float64(s.RoundsPlayed))
	bonus := math.Min(okPerRound*10.0, 3.0) * rf
	bBefore, bAfter := c2.add("bonus", bonus)

	negMult := 1.20
	if s.OpeningKills >= s.OpeningDeaths {
		negMult = 0.80
	}
	nBefore, nAfter := c2.scale("opening_neg", negMult)

	return c2, []Effect{
		{
			Target: "bonus", Add: bonus, Before: bBefore, After: bAfter, By: "opening_kills",
			Diagnostics: map[string]float64{"ok_per_round": okPerRound, "round_factor": rf},
		},
		{Target: "opening_neg", Mult: negMult, Before: nBefore, After: nAfter},
	}
}

// AWPer bumps opening impact and pays a small flat bonus for a strong
// composite rating.
func roleAWPer(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	oBefore, oAfter := c2.scale("opening_pos", 1.25)
	bonus := 0.0
	if rating2(s) >= 1.10 {
		bonus = 1.0
	}
	bBefore, bAfter := c2.add("bonus", bonus)
	return c2, []Effect{
		{Target: "opening_pos", Mult: 1.25, Before: oBefore, After: oAfter},
		{Target: "bonus", Add: bonus, Before: bBefore, After: bAfter, By: "rating2"},
	}
}

// Support boosts assists and pays for flash assists, capped at +2.
func roleSupport(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	aBefore, aAfter := c2.scale("assists", 1.30)
	bonus := math.Min(float64(s.FlashAssists)*0.3, 2.0)
	bBefore, bAfter := c2.add("bonus", bonus)
	return c2, []Effect{
		{Target: "assists", Mult: 1.30, Before: aBefore, After: aAfter},
		{Target: "bonus", Add: bonus, Before: bBefore, After: bAfter, By: "flash_assists"},
	}
}

// Clutcher amplifies clutch wins only.
func roleClutcher(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	before, after := c2.scale("clutch", 1.30)
	return c2, []Effect{{Target: "clutch", Mult: 1.30, Before: before, After: after}}
}

// Anchor softens the death penalty and pays for utility damage, capped
// at +2.
func roleAnchor(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	dBefore, dAfter := c2.scale("deaths", 0.85)
	bonus := math.Min(s.UtilityDamage*0.01, 2.0)
	bBefore, bAfter := c2.add("bonus", bonus)
	return c2, []Effect{
		{Target: "deaths", Mult: 0.85, Before: dBefore, After: dAfter},
		{Target: "bonus", Add: bonus, Before: bBefore, After: bAfter, By: "utility_dmg"},
	}
}

// IGL softens deaths and compensates the ADR/rating block when the
// composite rating is low.
func roleIGL(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	dBefore, dAfter := c2.scale("deaths", 0.90)
	rt := rating2(s)
	comp := 0.0
	switch {
	case rt < 0.95:
		comp = 1.0
	case rt < 1.05:
		comp = 0.5
	}
	aBefore, aAfter := c2.add("adr_rt", comp)
	return c2, []Effect{
		{Target: "deaths", Mult: 0.90, Before: dBefore, After: dAfter},
		{Target: "adr_rt", Add: comp, Before: aBefore, After: aAfter, By: "low_rating_protection"},
	}
}

// Consistent pays a flat bonus for a low-death, positive-rating map.
func roleConsistent(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	bonus := 0.0
	if s.Deaths <= 10 && rating2(s) >= 1.00 {
		bonus = 2.0
	}
	before, after := c2.add("bonus", bonus)
	return c2, []Effect{{Target: "bonus", Add: bonus, Before: before, After: after, By: "deaths<=10 & rating2>=1.0"}}
}

// Finisher lightly amplifies both multi-kills and clutches.
func roleFinisher(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	mBefore, mAfter := c2.scale("multi", 1.15)
	clBefore, clAfter := c2.scale("clutch", 1.10)
	return c2, []Effect{
		{Target: "multi", Mult: 1.15, Before: mBefore, After: mAfter},
		{Target: "clutch", Mult: 1.10, Before: clBefore, After: clAfter},
	}
}

// Rifler is a general kills and openings lean, no excess.
func roleRifler(c Components, s *model.PlayerMapStats) (Components, []Effect) {
	c2 := c.Clone()
	kBefore, kAfter := c2.scale("kills", 1.10)
	oBefore, oAfter := c2.scale("opening_pos", 1.10)
	return c2, []Effect{
		{Target: "kills", Mult: 1.10, Before: kBefore, After: kAfter},
		{Target: "opening_pos", Mult: 1.10, Before: oBefore, After: oAfter},
	}
}

// WarningUnknownRole is attached to the effect record when a role code is
// not in the registry.
const WarningUnknownRole = "unknown_role"

var registry = map[string]Modifier{
	"MULTIFRAGGER":  roleMultifragger,
	"HS_MACHINE":    roleHSMachine,
	"ENTRY_FRAGGER": roleEntryFragger,
	"AWPER":         roleAWPer,
	"SUPPORT":       roleSupport,
	"CLUTCHER":      roleClutcher,
	"ANCHOR":        roleAnchor,
	"IGL":           roleIGL,
	"CONSISTENT":    roleConsistent,
	"FINISHER":      roleFinisher,
	"RIFLER":        roleRifler,
}

// Known reports whether role has a registered modifier.
func Known(role string) bool {
	_, ok := registry[role]
	return ok
}

// Names returns the registered role codes in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply runs the named modifier over the component map. An empty role is a
// clean pass-through; an unknown role passes through with an explicit
// warning. The input map is never mutated.
func Apply(role string, c Components, s *model.PlayerMapStats) (Components, RoleEffect) {
	meta := RoleEffect{Role: role, Effects: []Effect{}}
	if role == "" {
		return c, meta
	}
	fn, ok := registry[role]
	if !ok {
		meta.Warning = WarningUnknownRole
		return c, meta
	}
	c2, effects := fn(c, s)
	meta.Effects = effects
	return c2, meta
}
