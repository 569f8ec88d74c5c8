// Package event holds the boundary coercion helpers that turn loosely
// encoded raw event fields into the strict types the extraction core
// consumes.
package event

import (
	"strconv"
	"strings"

	"github.com/fantasycs/mapscore/internal/model"
)

// NormalizeWinner canonicalizes a raw round-end winner code into a Side.
// Demo recorders disagree on the encoding: some write "T"/"CT", some write
// the team_num ("2"/"3"), and some legacy builds write "0"/"1". Anything
// unrecognized resolves to SideUnknown; this function never fails.
func NormalizeWinner(raw string) model.Side {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return model.SideUnknown
	}

	switch s {
	case "T":
		return model.SideT
	case "CT":
		return model.SideCT
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return model.SideUnknown
	}
	switch n {
	case int(model.SideT):
		return model.SideT
	case int(model.SideCT):
		return model.SideCT
	case 0:
		// Legacy 0/1 encoding, best effort.
		return model.SideT
	case 1:
		return model.SideCT
	default:
		return model.SideUnknown
	}
}

// SideFromTeamNum coerces a raw team_num sample into a Side. Spectators and
// unassigned slots map to SideUnknown and are dropped by the reconciler.
func SideFromTeamNum(n int) model.Side {
	switch n {
	case int(model.SideT):
		return model.SideT
	case int(model.SideCT):
		return model.SideCT
	default:
		return model.SideUnknown
	}
}
