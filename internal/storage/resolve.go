package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// fuzzyThreshold is the minimum similarity for matching a demo identity to
// an existing row instead of creating a new one.
const fuzzyThreshold = 0.85

// normalizeName lowercases and strips everything but letters and digits, so
// tag decorations ("s1mple" vs "NaVi s1mple") don't defeat matching.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity is the levenshtein ratio over normalized names, in [0, 1].
func similarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" && nb == "" {
		return 1
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(d)/float64(longest)
}

// ResolvePlayer finds or creates the player for a demo identity. Match order:
// exact steam id, case-insensitive nickname, then fuzzy nickname above the
// similarity threshold. A fuzzy or nickname match backfills a missing steam
// id.
func (db *DB) ResolvePlayer(nickname, steamID string) (int64, error) {
	if steamID != "" {
		var id int64
		err := db.conn.QueryRow("SELECT id FROM players WHERE steam_id = ?", steamID).Scan(&id)
		switch {
		case err == nil:
			return id, nil
		case err != sql.ErrNoRows:
			return 0, fmt.Errorf("resolve player by steam id: %w", err)
		}
	}

	var id int64
	err := db.conn.QueryRow(
		"SELECT id FROM players WHERE nickname = ? COLLATE NOCASE ORDER BY id LIMIT 1",
		nickname,
	).Scan(&id)
	switch {
	case err == nil:
		return id, db.backfillSteamID(id, steamID)
	case err != sql.ErrNoRows:
		return 0, fmt.Errorf("resolve player by nickname: %w", err)
	}

	rows, err := db.conn.Query("SELECT id, nickname FROM players ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("scan players for fuzzy match: %w", err)
	}
	defer rows.Close()

	bestID, bestScore := int64(0), 0.0
	for rows.Next() {
		var pid int64
		var name string
		if err := rows.Scan(&pid, &name); err != nil {
			return 0, err
		}
		if s := similarity(nickname, name); s > bestScore {
			bestID, bestScore = pid, s
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if bestScore >= fuzzyThreshold {
		return bestID, db.backfillSteamID(bestID, steamID)
	}

	res, err := db.conn.Exec("INSERT INTO players(nickname, steam_id) VALUES (?, ?)", nickname, steamID)
	if err != nil {
		return 0, fmt.Errorf("create player %q: %w", nickname, err)
	}
	return res.LastInsertId()
}

func (db *DB) backfillSteamID(playerID int64, steamID string) error {
	if steamID == "" {
		return nil
	}
	_, err := db.conn.Exec(
		"UPDATE players SET steam_id = ? WHERE id = ? AND steam_id = ''",
		steamID, playerID,
	)
	return err
}

// ResolveTeam finds or creates the team for a demo clan name: exact match,
// then fuzzy above the similarity threshold.
func (db *DB) ResolveTeam(name string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		"SELECT id FROM teams WHERE name = ? COLLATE NOCASE LIMIT 1", name,
	).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case err != sql.ErrNoRows:
		return 0, fmt.Errorf("resolve team: %w", err)
	}

	rows, err := db.conn.Query("SELECT id, name FROM teams ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("scan teams for fuzzy match: %w", err)
	}
	defer rows.Close()

	bestID, bestScore := int64(0), 0.0
	for rows.Next() {
		var tid int64
		var n string
		if err := rows.Scan(&tid, &n); err != nil {
			return 0, err
		}
		if s := similarity(name, n); s > bestScore {
			bestID, bestScore = tid, s
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if bestScore >= fuzzyThreshold {
		return bestID, nil
	}

	res, err := db.conn.Exec("INSERT INTO teams(name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("create team %q: %w", name, err)
	}
	return res.LastInsertId()
}
