package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fantasycs/mapscore/internal/model"
)

// MapRow is a stored map with its team assignments resolved to names.
type MapRow struct {
	ID           int64
	SourceHash   string
	MapName      string
	PlayedRounds int
	TScore       int
	CTScore      int
	Team1        string
	Team2        string
	Team1ID      int64
	Team2ID      int64
	Team1Score   int
	Team2Score   int
	WinnerTeam   string
	WinnerTeamID int64
	ImportedAt   string
}

// PlayerStatRow joins a player's identity onto their per-map stat line.
type PlayerStatRow struct {
	PlayerID int64
	Nickname string
	TeamID   int64
	TeamName string
	Stats    model.PlayerMapStats
}

// RosterEntry is one player slot on a fantasy roster.
type RosterEntry struct {
	ID        int64
	Roster    string
	PlayerID  int64
	Nickname  string
	RoleBadge string
}

// PointsRow is a stored fantasy score for one roster slot on one map.
type PointsRow struct {
	EntryID   int64
	MapID     int64
	PlayerID  int64
	Nickname  string
	RoleBadge string
	Points    float64
	Breakdown string
}

// MapExists reports whether a map with the given source hash is already stored.
func (db *DB) MapExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM maps WHERE source_hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveMapResult persists one extracted map: teams and players are resolved
// (fuzzy-matched or created), the map row is upserted on its source hash,
// and every stat line is written. Re-importing the same recording overwrites
// in place.
func (db *DB) SaveMapResult(res *model.MapResult, sourceHash string) (int64, error) {
	teamIDs := make(map[string]int64)
	// Deterministic resolution order so first-run team ids don't depend on
	// map iteration.
	names := make([]string, 0, len(res.TeamScore))
	for name := range res.TeamScore {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := db.ResolveTeam(name)
		if err != nil {
			return 0, err
		}
		teamIDs[name] = id
	}

	// Team 1 is the side with more rounds, name breaking ties.
	sort.SliceStable(names, func(i, j int) bool {
		si, sj := res.TeamScore[names[i]], res.TeamScore[names[j]]
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})

	var team1, team2, winner sql.NullInt64
	var score1, score2 int
	if len(names) > 0 {
		team1 = sql.NullInt64{Int64: teamIDs[names[0]], Valid: true}
		score1 = res.TeamScore[names[0]]
	}
	if len(names) > 1 {
		team2 = sql.NullInt64{Int64: teamIDs[names[1]], Valid: true}
		score2 = res.TeamScore[names[1]]
	}
	if res.WinnerTeam != "" && res.WinnerTeam != model.DrawMarker {
		winner = sql.NullInt64{Int64: teamIDs[res.WinnerTeam], Valid: true}
	}

	var mapID int64
	err := db.conn.QueryRow(`
		INSERT INTO maps(source_hash, map_name, played_rounds, t_score, ct_score,
			team1_id, team2_id, team1_score, team2_score, winner_team_id, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_hash) DO UPDATE SET
			map_name = excluded.map_name,
			played_rounds = excluded.played_rounds,
			t_score = excluded.t_score,
			ct_score = excluded.ct_score,
			team1_id = excluded.team1_id,
			team2_id = excluded.team2_id,
			team1_score = excluded.team1_score,
			team2_score = excluded.team2_score,
			winner_team_id = excluded.winner_team_id,
			imported_at = excluded.imported_at
		RETURNING id`,
		sourceHash, res.MapName, res.RoundCount, res.SideScore.T, res.SideScore.CT,
		team1, team2, score1, score2, winner,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&mapID)
	if err != nil {
		return 0, fmt.Errorf("upsert map: %w", err)
	}

	for _, ps := range res.Players {
		playerID, err := db.ResolvePlayer(ps.Name, steamIDString(ps.SteamID))
		if err != nil {
			return 0, err
		}
		if tid, ok := teamIDs[ps.TeamName]; ok {
			if _, err := db.conn.Exec("UPDATE players SET team_id = ? WHERE id = ?", tid, playerID); err != nil {
				return 0, fmt.Errorf("update player team: %w", err)
			}
		}
		if err := db.UpsertPlayerMapStats(mapID, playerID, ps); err != nil {
			return 0, err
		}
	}
	return mapID, nil
}

// UpsertPlayerMapStats writes one stat line, replacing any previous line for
// the same (map, player). An existing externally imported rating survives a
// re-import.
func (db *DB) UpsertPlayerMapStats(mapID, playerID int64, s model.PlayerMapStats) error {
	_, err := db.conn.Exec(`
		INSERT INTO player_map_stats(
			map_id, player_id, rounds_played,
			kills, deaths, assists, headshots, flash_assists,
			opening_kills, opening_deaths,
			mk_3k, mk_4k, mk_5k,
			cl_1v2, cl_1v3, cl_1v4, cl_1v5,
			utility_damage, adr, rating2
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(map_id, player_id) DO UPDATE SET
			rounds_played = excluded.rounds_played,
			kills = excluded.kills,
			deaths = excluded.deaths,
			assists = excluded.assists,
			headshots = excluded.headshots,
			flash_assists = excluded.flash_assists,
			opening_kills = excluded.opening_kills,
			opening_deaths = excluded.opening_deaths,
			mk_3k = excluded.mk_3k,
			mk_4k = excluded.mk_4k,
			mk_5k = excluded.mk_5k,
			cl_1v2 = excluded.cl_1v2,
			cl_1v3 = excluded.cl_1v3,
			cl_1v4 = excluded.cl_1v4,
			cl_1v5 = excluded.cl_1v5,
			utility_damage = excluded.utility_damage,
			adr = excluded.adr,
			rating2 = COALESCE(excluded.rating2, player_map_stats.rating2)`,
		mapID, playerID, s.RoundsPlayed,
		s.Kills, s.Deaths, s.Assists, s.Headshots, s.FlashAssists,
		s.OpeningKills, s.OpeningDeaths,
		s.MK3K, s.MK4K, s.MK5K,
		s.CL1v2, s.CL1v3, s.CL1v4, s.CL1v5,
		s.UtilityDamage, s.ADR, nullFloat(s.Rating2),
	)
	if err != nil {
		return fmt.Errorf("upsert stats for player %d: %w", playerID, err)
	}
	return nil
}

// ListMaps returns all stored maps, newest import first.
func (db *DB) ListMaps() ([]MapRow, error) {
	rows, err := db.conn.Query(mapSelect + " ORDER BY m.imported_at DESC, m.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMapRows(rows)
}

const mapSelect = `
	SELECT m.id, m.source_hash, m.map_name, m.played_rounds, m.t_score, m.ct_score,
		COALESCE(t1.name, ''), COALESCE(t2.name, ''), COALESCE(m.team1_id, 0), COALESCE(m.team2_id, 0),
		m.team1_score, m.team2_score,
		COALESCE(tw.name, ''), COALESCE(m.winner_team_id, 0), m.imported_at
	FROM maps m
	LEFT JOIN teams t1 ON t1.id = m.team1_id
	LEFT JOIN teams t2 ON t2.id = m.team2_id
	LEFT JOIN teams tw ON tw.id = m.winner_team_id`

func scanMapRows(rows *sql.Rows) ([]MapRow, error) {
	var out []MapRow
	for rows.Next() {
		var m MapRow
		if err := rows.Scan(
			&m.ID, &m.SourceHash, &m.MapName, &m.PlayedRounds, &m.TScore, &m.CTScore,
			&m.Team1, &m.Team2, &m.Team1ID, &m.Team2ID,
			&m.Team1Score, &m.Team2Score,
			&m.WinnerTeam, &m.WinnerTeamID, &m.ImportedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMap looks a map up by numeric id or by a unique source-hash prefix.
func (db *DB) GetMap(ref string) (MapRow, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		rows, err := db.conn.Query(mapSelect+" WHERE m.id = ?", id)
		if err != nil {
			return MapRow{}, err
		}
		defer rows.Close()
		found, err := scanMapRows(rows)
		if err != nil {
			return MapRow{}, err
		}
		if len(found) == 0 {
			return MapRow{}, fmt.Errorf("no map with id %d", id)
		}
		return found[0], nil
	}

	rows, err := db.conn.Query(mapSelect+" WHERE m.source_hash LIKE ?", ref+"%")
	if err != nil {
		return MapRow{}, err
	}
	defer rows.Close()
	found, err := scanMapRows(rows)
	if err != nil {
		return MapRow{}, err
	}
	switch len(found) {
	case 0:
		return MapRow{}, fmt.Errorf("no map matching %q", ref)
	case 1:
		return found[0], nil
	default:
		return MapRow{}, fmt.Errorf("ambiguous map reference %q (%d matches)", ref, len(found))
	}
}

// PlayerStatsForMap returns every stat line on a map with identities joined,
// ordered by kills.
func (db *DB) PlayerStatsForMap(mapID int64) ([]PlayerStatRow, error) {
	rows, err := db.conn.Query(`
		SELECT p.id, p.nickname, p.steam_id, COALESCE(p.team_id, 0), COALESCE(t.name, ''),
			s.rounds_played, s.kills, s.deaths, s.assists, s.headshots, s.flash_assists,
			s.opening_kills, s.opening_deaths,
			s.mk_3k, s.mk_4k, s.mk_5k,
			s.cl_1v2, s.cl_1v3, s.cl_1v4, s.cl_1v5,
			s.utility_damage, s.adr, s.rating2
		FROM player_map_stats s
		JOIN players p ON p.id = s.player_id
		LEFT JOIN teams t ON t.id = p.team_id
		WHERE s.map_id = ?
		ORDER BY s.kills DESC, p.id ASC`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerStatRow
	for rows.Next() {
		var r PlayerStatRow
		var steamID string
		var rating sql.NullFloat64
		if err := rows.Scan(
			&r.PlayerID, &r.Nickname, &steamID, &r.TeamID, &r.TeamName,
			&r.Stats.RoundsPlayed, &r.Stats.Kills, &r.Stats.Deaths, &r.Stats.Assists,
			&r.Stats.Headshots, &r.Stats.FlashAssists,
			&r.Stats.OpeningKills, &r.Stats.OpeningDeaths,
			&r.Stats.MK3K, &r.Stats.MK4K, &r.Stats.MK5K,
			&r.Stats.CL1v2, &r.Stats.CL1v3, &r.Stats.CL1v4, &r.Stats.CL1v5,
			&r.Stats.UtilityDamage, &r.Stats.ADR, &rating,
		); err != nil {
			return nil, err
		}
		r.Stats.Name = r.Nickname
		r.Stats.TeamName = r.TeamName
		if id, err := strconv.ParseUint(steamID, 10, 64); err == nil {
			r.Stats.SteamID = id
		}
		if rating.Valid {
			v := rating.Float64
			r.Stats.Rating2 = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRosterEntry adds a player to a roster or updates their role badge.
func (db *DB) UpsertRosterEntry(roster string, playerID int64, roleBadge string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`
		INSERT INTO roster_entries(roster_name, player_id, role_badge)
		VALUES (?, ?, ?)
		ON CONFLICT(roster_name, player_id) DO UPDATE SET role_badge = excluded.role_badge
		RETURNING id`,
		roster, playerID, roleBadge,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert roster entry: %w", err)
	}
	return id, nil
}

// RosterEntries lists a roster's slots; an empty roster name lists all.
func (db *DB) RosterEntries(roster string) ([]RosterEntry, error) {
	q := `
		SELECT r.id, r.roster_name, r.player_id, p.nickname, r.role_badge
		FROM roster_entries r
		JOIN players p ON p.id = r.player_id`
	args := []any{}
	if roster != "" {
		q += " WHERE r.roster_name = ?"
		args = append(args, roster)
	}
	q += " ORDER BY r.roster_name, r.id"

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.ID, &e.Roster, &e.PlayerID, &e.Nickname, &e.RoleBadge); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveFantasyPoints upserts the computed score for one roster slot on one
// map. Recalculation overwrites the previous value.
func (db *DB) SaveFantasyPoints(entryID, mapID, playerID int64, points float64, breakdown []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO fantasy_points(roster_entry_id, map_id, player_id, points, breakdown)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(roster_entry_id, map_id, player_id) DO UPDATE SET
			points = excluded.points,
			breakdown = excluded.breakdown`,
		entryID, mapID, playerID, points, string(breakdown),
	)
	if err != nil {
		return fmt.Errorf("save fantasy points: %w", err)
	}
	return nil
}

// FantasyPointsForRoster returns a roster's stored scores on one map.
func (db *DB) FantasyPointsForRoster(roster string, mapID int64) ([]PointsRow, error) {
	rows, err := db.conn.Query(`
		SELECT f.roster_entry_id, f.map_id, f.player_id, p.nickname, r.role_badge, f.points, f.breakdown
		FROM fantasy_points f
		JOIN roster_entries r ON r.id = f.roster_entry_id
		JOIN players p ON p.id = f.player_id
		WHERE r.roster_name = ? AND f.map_id = ?
		ORDER BY f.points DESC, p.id ASC`, roster, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PointsRow
	for rows.Next() {
		var r PointsRow
		if err := rows.Scan(&r.EntryID, &r.MapID, &r.PlayerID, &r.Nickname, &r.RoleBadge, &r.Points, &r.Breakdown); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func steamIDString(id uint64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(id, 10)
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
