package storage

import (
	"testing"

	"github.com/fantasycs/mapscore/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult() *model.MapResult {
	return &model.MapResult{
		MapName:    "de_nuke",
		RoundCount: 21,
		SideScore:  model.SideScore{T: 9, CT: 12},
		TeamScore:  map[string]int{"Alpha": 13, "Bravo": 8},
		WinnerTeam: "Alpha",
		WinnerSide: "CT",
		Players: []model.PlayerMapStats{
			{SteamID: 101, Name: "alice", TeamName: "Alpha", RoundsPlayed: 21, Kills: 22, Deaths: 14, Assists: 3, Headshots: 11, ADR: 91.5},
			{SteamID: 201, Name: "xena", TeamName: "Bravo", RoundsPlayed: 21, Kills: 15, Deaths: 18, Assists: 6, ADR: 70.2},
		},
	}
}

func TestSaveMapResult_RoundTrip(t *testing.T) {
	db := openMemDB(t)

	mapID, err := db.SaveMapResult(sampleResult(), "hash-one")
	if err != nil {
		t.Fatalf("SaveMapResult: %v", err)
	}

	exists, err := db.MapExists("hash-one")
	if err != nil {
		t.Fatalf("MapExists: %v", err)
	}
	if !exists {
		t.Error("expected map to exist after save")
	}

	m, err := db.GetMap("hash-one")
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if m.ID != mapID || m.MapName != "de_nuke" || m.PlayedRounds != 21 {
		t.Errorf("map row = %+v", m)
	}
	if m.Team1 != "Alpha" || m.Team2 != "Bravo" || m.Team1Score != 13 || m.Team2Score != 8 {
		t.Errorf("team columns = %+v (team 1 must be the higher score)", m)
	}
	if m.WinnerTeam != "Alpha" || m.WinnerTeamID != m.Team1ID {
		t.Errorf("winner = %q (id %d), want Alpha (id %d)", m.WinnerTeam, m.WinnerTeamID, m.Team1ID)
	}
	if m.TScore != 9 || m.CTScore != 12 {
		t.Errorf("side score = %d/%d", m.TScore, m.CTScore)
	}

	rows, err := db.PlayerStatsForMap(mapID)
	if err != nil {
		t.Fatalf("PlayerStatsForMap: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stat rows = %d, want 2", len(rows))
	}
	if rows[0].Nickname != "alice" || rows[0].Stats.Kills != 22 {
		t.Errorf("row 0 = %+v (must be ordered by kills)", rows[0])
	}
	if rows[0].TeamName != "Alpha" || rows[1].TeamName != "Bravo" {
		t.Errorf("team names = %q/%q", rows[0].TeamName, rows[1].TeamName)
	}
	if rows[0].Stats.Rating2 != nil {
		t.Error("rating must be NULL until imported")
	}
}

func TestSaveMapResult_ReimportOverwrites(t *testing.T) {
	db := openMemDB(t)

	if _, err := db.SaveMapResult(sampleResult(), "hash-one"); err != nil {
		t.Fatalf("first save: %v", err)
	}

	res := sampleResult()
	res.Players[0].Kills = 30
	mapID, err := db.SaveMapResult(res, "hash-one")
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	maps, err := db.ListMaps()
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(maps) != 1 {
		t.Fatalf("re-import duplicated the map: %d rows", len(maps))
	}

	rows, err := db.PlayerStatsForMap(mapID)
	if err != nil {
		t.Fatalf("PlayerStatsForMap: %v", err)
	}
	if len(rows) != 2 || rows[0].Stats.Kills != 30 {
		t.Errorf("stats not overwritten: %+v", rows)
	}
}

func TestGetMap_PrefixAndAmbiguity(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.SaveMapResult(sampleResult(), "abc111"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveMapResult(sampleResult(), "abd222"); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetMap("abc"); err != nil {
		t.Errorf("unique prefix lookup failed: %v", err)
	}
	if _, err := db.GetMap("ab"); err == nil {
		t.Error("ambiguous prefix must error")
	}
	if _, err := db.GetMap("zzz"); err == nil {
		t.Error("unknown prefix must error")
	}
}

func TestResolvePlayer_MatchOrder(t *testing.T) {
	db := openMemDB(t)

	id, err := db.ResolvePlayer("s1mple", "7656119")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Steam id wins even when the nickname changed.
	id2, err := db.ResolvePlayer("s1mple-new", "7656119")
	if err != nil {
		t.Fatalf("steam match: %v", err)
	}
	if id2 != id {
		t.Errorf("steam id match created a duplicate: %d vs %d", id2, id)
	}

	// Case-insensitive nickname match.
	id3, err := db.ResolvePlayer("S1MPLE", "")
	if err != nil {
		t.Fatalf("nickname match: %v", err)
	}
	if id3 != id {
		t.Errorf("nickname match failed: %d vs %d", id3, id)
	}

	// Decorated variant resolves fuzzily after normalization.
	id4, err := db.ResolvePlayer("s1mple*", "")
	if err != nil {
		t.Fatalf("fuzzy match: %v", err)
	}
	if id4 != id {
		t.Errorf("fuzzy match failed: %d vs %d", id4, id)
	}

	// A genuinely different name creates a new player.
	id5, err := db.ResolvePlayer("electronic", "")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if id5 == id {
		t.Error("distinct nickname collapsed into existing player")
	}
}

func TestResolvePlayer_BackfillsSteamID(t *testing.T) {
	db := openMemDB(t)

	id, err := db.ResolvePlayer("device", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ResolvePlayer("device", "7656200"); err != nil {
		t.Fatal(err)
	}

	got, err := db.ResolvePlayer("someone else entirely", "7656200")
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("backfilled steam id not used: %d vs %d", got, id)
	}
}

func TestResolveTeam_FuzzyMatch(t *testing.T) {
	db := openMemDB(t)

	id, err := db.ResolveTeam("Team Vitality")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := db.ResolveTeam("TeamVitality")
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id {
		t.Errorf("fuzzy team match failed: %d vs %d", id2, id)
	}

	id3, err := db.ResolveTeam("FaZe")
	if err != nil {
		t.Fatal(err)
	}
	if id3 == id {
		t.Error("distinct team collapsed into existing one")
	}
}

func TestRosterAndFantasyPoints(t *testing.T) {
	db := openMemDB(t)

	mapID, err := db.SaveMapResult(sampleResult(), "hash-one")
	if err != nil {
		t.Fatal(err)
	}
	playerID, err := db.ResolvePlayer("alice", "101")
	if err != nil {
		t.Fatal(err)
	}

	entryID, err := db.UpsertRosterEntry("dreamteam", playerID, "AWPER")
	if err != nil {
		t.Fatalf("UpsertRosterEntry: %v", err)
	}

	// Role change updates in place.
	entryID2, err := db.UpsertRosterEntry("dreamteam", playerID, "RIFLER")
	if err != nil {
		t.Fatal(err)
	}
	if entryID2 != entryID {
		t.Errorf("roster upsert duplicated the entry: %d vs %d", entryID2, entryID)
	}

	entries, err := db.RosterEntries("dreamteam")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].RoleBadge != "RIFLER" {
		t.Errorf("entries = %+v", entries)
	}

	if err := db.SaveFantasyPoints(entryID, mapID, playerID, 31.5, []byte(`{"final":31.5}`)); err != nil {
		t.Fatalf("SaveFantasyPoints: %v", err)
	}
	// Recalculation overwrites.
	if err := db.SaveFantasyPoints(entryID, mapID, playerID, 28.0, []byte(`{"final":28}`)); err != nil {
		t.Fatal(err)
	}

	rows, err := db.FantasyPointsForRoster("dreamteam", mapID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Points != 28.0 || rows[0].RoleBadge != "RIFLER" {
		t.Errorf("points rows = %+v", rows)
	}
}

func TestPatchPlayerMapStats_AliasesAndDrops(t *testing.T) {
	db := openMemDB(t)

	mapID, err := db.SaveMapResult(sampleResult(), "hash-one")
	if err != nil {
		t.Fatal(err)
	}
	playerID, err := db.ResolvePlayer("alice", "101")
	if err != nil {
		t.Fatal(err)
	}

	applied, dropped, err := db.PatchPlayerMapStats(mapID, playerID, map[string]float64{
		"rating_2":    1.31,
		"hs":          14,
		"kast":        75, // no binding
		"weird_field": 1,  // no binding
	})
	if err != nil {
		t.Fatalf("PatchPlayerMapStats: %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %v, want headshots and rating2", applied)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want the two unknown metrics", dropped)
	}

	rows, err := db.PlayerStatsForMap(mapID)
	if err != nil {
		t.Fatal(err)
	}
	var alice *PlayerStatRow
	for i := range rows {
		if rows[i].PlayerID == playerID {
			alice = &rows[i]
		}
	}
	if alice == nil {
		t.Fatal("alice missing from stats")
	}
	if alice.Stats.Headshots != 14 {
		t.Errorf("headshots = %d, want 14 via alias", alice.Stats.Headshots)
	}
	if alice.Stats.Rating2 == nil || *alice.Stats.Rating2 != 1.31 {
		t.Errorf("rating2 = %v, want 1.31", alice.Stats.Rating2)
	}
}

func TestPatchPlayerMapStats_MissingLineErrors(t *testing.T) {
	db := openMemDB(t)
	if _, _, err := db.PatchPlayerMapStats(1, 1, map[string]float64{"kills": 5}); err == nil {
		t.Fatal("expected error patching a nonexistent stat line")
	}
}
