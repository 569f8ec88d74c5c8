// Package scoring converts one player's map aggregate into a bounded
// fantasy point value with a fully auditable breakdown.
package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params is the immutable configuration bundle for one scoring run:
// per-event weights, step-function thresholds for derived metrics,
// round-length normalization bounds, the team-win bonus, and the final
// clamp. A Params value is never mutated after construction and is safe to
// share across concurrent Compute calls.
type Params struct {
	Kill      float64 `yaml:"kill"`
	Death     float64 `yaml:"death"` // negative weight
	Assist    float64 `yaml:"assist"`
	OpenKill  float64 `yaml:"open_kill"`
	OpenDeath float64 `yaml:"open_death"` // negative weight
	MK3K      float64 `yaml:"mk_3k"`
	MK4K      float64 `yaml:"mk_4k"`
	MK5K      float64 `yaml:"mk_5k"`
	CL1v2     float64 `yaml:"cl_1v2"`
	CL1v3     float64 `yaml:"cl_1v3"`
	CL1v4     float64 `yaml:"cl_1v4"`
	CL1v5     float64 `yaml:"cl_1v5"`

	ADRBonus85      float64 `yaml:"adr_bonus_85"`
	ADRBonus70      float64 `yaml:"adr_bonus_70"`
	ADRPenalty50    float64 `yaml:"adr_penalty_50"`
	RatingBonus120  float64 `yaml:"rating_bonus_120"`
	RatingBonus100  float64 `yaml:"rating_bonus_100"`
	RatingPenalty90 float64 `yaml:"rating_penalty_090"`

	RoundBase    float64 `yaml:"round_base"` // MR12 standard map length
	RoundMin     float64 `yaml:"round_min"`
	RoundMax     float64 `yaml:"round_max"`
	TeamWinBonus float64 `yaml:"team_win_bonus"`
	PtsMin       float64 `yaml:"pts_min"`
	PtsMax       float64 `yaml:"pts_max"`
}

// DefaultParams returns the stock weight set.
func DefaultParams() Params {
	return Params{
		Kill:      1.0,
		Death:     -0.5,
		Assist:    0.5,
		OpenKill:  1.5,
		OpenDeath: -1.0,
		MK3K:      2.0,
		MK4K:      5.0,
		MK5K:      10.0,
		CL1v2:     3.0,
		CL1v3:     5.0,
		CL1v4:     8.0,
		CL1v5:     15.0,

		ADRBonus85:      3.0,
		ADRBonus70:      1.0,
		ADRPenalty50:    -1.0,
		RatingBonus120:  4.0,
		RatingBonus100:  2.0,
		RatingPenalty90: -2.0,

		RoundBase:    20.0,
		RoundMin:     0.85,
		RoundMax:     1.25,
		TeamWinBonus: 2.0,
		PtsMin:       -20.0,
		PtsMax:       60.0,
	}
}

// LoadParams reads a YAML override file on top of the defaults. Keys absent
// from the file keep their default values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read scoring params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse scoring params: %w", err)
	}
	return p, nil
}
