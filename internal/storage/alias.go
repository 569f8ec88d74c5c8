package storage

import (
	"fmt"
	"sort"
	"strings"
)

// statAliases is the closed mapping from externally-fed metric names to
// player_map_stats columns. External stat feeds are loosely keyed, so a few
// spellings map onto the same column; anything without a binding is dropped
// with no error. Extending the importable surface means adding a row here,
// nothing else.
var statAliases = map[string]string{
	"rounds_played":  "rounds_played",
	"kills":          "kills",
	"deaths":         "deaths",
	"assists":        "assists",
	"headshots":      "headshots",
	"hs":             "headshots",
	"flash_assists":  "flash_assists",
	"opening_kills":  "opening_kills",
	"ok":             "opening_kills",
	"opening_deaths": "opening_deaths",
	"od":             "opening_deaths",
	"mk_3k":          "mk_3k",
	"mk_4k":          "mk_4k",
	"mk_5k":          "mk_5k",
	"cl_1v2":         "cl_1v2",
	"cl_1v3":         "cl_1v3",
	"cl_1v4":         "cl_1v4",
	"cl_1v5":         "cl_1v5",
	"utility_damage": "utility_damage",
	"adr":            "adr",
	"rating2":        "rating2",
	"rating_2":       "rating2",
	"rating":         "rating2",
}

// PatchPlayerMapStats applies externally imported metrics (an HLTV-style
// rating feed, a manual correction) onto an existing stat line. Keys resolve
// through the alias table; unmatched keys are returned as dropped, matched
// columns as applied. The stat line must already exist.
func (db *DB) PatchPlayerMapStats(mapID, playerID int64, metrics map[string]float64) (applied, dropped []string, err error) {
	values := make(map[string]float64)
	for key, v := range metrics {
		col, ok := statAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		values[col] = v
	}
	sort.Strings(dropped)
	if len(values) == 0 {
		return nil, dropped, nil
	}

	for col := range values {
		applied = append(applied, col)
	}
	sort.Strings(applied)

	sets := make([]string, 0, len(applied))
	args := make([]any, 0, len(applied)+2)
	for _, col := range applied {
		sets = append(sets, col+" = ?")
		args = append(args, values[col])
	}
	args = append(args, mapID, playerID)

	res, err := db.conn.Exec(
		"UPDATE player_map_stats SET "+strings.Join(sets, ", ")+" WHERE map_id = ? AND player_id = ?",
		args...,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("patch stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("no stat line for player %d on map %d", playerID, mapID)
	}
	return applied, dropped, nil
}
