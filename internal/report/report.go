package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fantasycs/mapscore/internal/model"
	"github.com/fantasycs/mapscore/internal/scoring"
	"github.com/fantasycs/mapscore/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMapSummary prints a one-line header for a stored map.
func PrintMapSummary(w io.Writer, m storage.MapRow) {
	matchup := "unknown teams"
	if m.Team1 != "" || m.Team2 != "" {
		matchup = fmt.Sprintf("%s %d – %d %s", m.Team1, m.Team1Score, m.Team2Score, m.Team2)
	}
	winner := m.WinnerTeam
	if winner == "" {
		winner = model.DrawMarker
	}
	hash := m.SourceHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	fmt.Fprintf(w, "\nMap: %s  |  Rounds: %d  |  T %d – CT %d  |  %s  |  Winner: %s  |  Hash: %s\n\n",
		m.MapName, m.PlayedRounds, m.TScore, m.CTScore, matchup, winner, hash)
}

// PrintResultSummary prints the extraction result before it touches storage:
// side score, team score and the half breakdown.
func PrintResultSummary(w io.Writer, res *model.MapResult) {
	fmt.Fprintf(w, "\nMap: %s  |  Rounds: %d  |  T %d – CT %d  |  Winner side: %s\n",
		res.MapName, res.RoundCount, res.SideScore.T, res.SideScore.CT, res.WinnerSide)

	if len(res.TeamScore) > 0 {
		names := make([]string, 0, len(res.TeamScore))
		for n := range res.TeamScore {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			if res.TeamScore[names[i]] != res.TeamScore[names[j]] {
				return res.TeamScore[names[i]] > res.TeamScore[names[j]]
			}
			return names[i] < names[j]
		})
		for _, n := range names {
			fmt.Fprintf(w, "  %-24s %2d  (1st half %d, 2nd half %d, OT %d)\n",
				n, res.TeamScore[n],
				res.HalfScore.FirstHalf[n], res.HalfScore.SecondHalf[n], res.HalfScore.Overtime[n])
		}
		winner := res.WinnerTeam
		if winner == "" {
			winner = model.DrawMarker
		}
		fmt.Fprintf(w, "  Winner: %s\n", winner)
	}
	fmt.Fprintln(w)
}

// PrintScoreboard prints the per-player stat table for one map.
func PrintScoreboard(w io.Writer, players []model.PlayerMapStats) {
	table := newTable(w)
	table.Header(
		"NAME", "TEAM", "K", "A", "D", "K/D", "HS%", "ADR",
		"FA", "OK", "OD", "3K", "4K", "5K", "CLUTCH", "UTIL_DMG", "R2.0",
	)

	for _, s := range players {
		rating := "—"
		if s.Rating2 != nil {
			rating = fmt.Sprintf("%.2f", *s.Rating2)
		}
		table.Append(
			s.Name,
			s.TeamName,
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Assists),
			strconv.Itoa(s.Deaths),
			fmt.Sprintf("%.2f", s.KDRatio()),
			fmt.Sprintf("%.0f%%", s.HSPercent()),
			fmt.Sprintf("%.1f", s.ADR),
			strconv.Itoa(s.FlashAssists),
			strconv.Itoa(s.OpeningKills),
			strconv.Itoa(s.OpeningDeaths),
			strconv.Itoa(s.MK3K),
			strconv.Itoa(s.MK4K),
			strconv.Itoa(s.MK5K),
			clutchCell(s),
			fmt.Sprintf("%.0f", s.UtilityDamage),
			rating,
		)
	}
	table.Render()
}

func clutchCell(s model.PlayerMapStats) string {
	total := s.CL1v2 + s.CL1v3 + s.CL1v4 + s.CL1v5
	if total == 0 {
		return "—"
	}
	return strconv.Itoa(total)
}

// PrintMapList prints the stored-map index.
func PrintMapList(w io.Writer, maps []storage.MapRow) {
	table := newTable(w)
	table.Header("ID", "MAP", "ROUNDS", "SCORE", "WINNER", "IMPORTED", "HASH")
	for _, m := range maps {
		score := fmt.Sprintf("%d–%d", m.Team1Score, m.Team2Score)
		matchup := "—"
		if m.Team1 != "" || m.Team2 != "" {
			matchup = fmt.Sprintf("%s %s %s", m.Team1, score, m.Team2)
		}
		winner := m.WinnerTeam
		if winner == "" {
			winner = model.DrawMarker
		}
		hash := m.SourceHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		table.Append(
			strconv.FormatInt(m.ID, 10),
			m.MapName,
			strconv.Itoa(m.PlayedRounds),
			matchup,
			winner,
			m.ImportedAt,
			hash,
		)
	}
	table.Render()
}

// PrintRoster prints a roster's slots.
func PrintRoster(w io.Writer, entries []storage.RosterEntry) {
	table := newTable(w)
	table.Header("ROSTER", "PLAYER", "ROLE")
	for _, e := range entries {
		role := e.RoleBadge
		if role == "" {
			role = "—"
		}
		table.Append(e.Roster, e.Nickname, role)
	}
	table.Render()
}

// PrintPointsTable prints computed fantasy scores for a roster on one map.
func PrintPointsTable(w io.Writer, rows []storage.PointsRow) {
	table := newTable(w)
	table.Header("PLAYER", "ROLE", "POINTS", "ROUND_FACTOR", "TEAM_BONUS")
	for _, r := range rows {
		role := r.RoleBadge
		if role == "" {
			role = "—"
		}
		rf, tb := "—", "—"
		var b scoring.Breakdown
		if err := json.Unmarshal([]byte(r.Breakdown), &b); err == nil {
			rf = fmt.Sprintf("%.3f", b.RoundFactor)
			tb = fmt.Sprintf("%.1f", b.TeamWinBonus)
		}
		table.Append(r.Nickname, role, fmt.Sprintf("%.2f", r.Points), rf, tb)
	}
	table.Render()
}

// PrintBreakdown dumps one score's component trace, before and after the
// role modifier.
func PrintBreakdown(w io.Writer, nickname string, b scoring.Breakdown) {
	fmt.Fprintf(w, "\n%s  (role: %s)\n", nickname, roleLabel(b))

	keys := make([]string, 0, len(b.ComponentsBefore))
	for k := range b.ComponentsBefore {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := newTable(w)
	table.Header("COMPONENT", "BASE", "AFTER ROLE")
	for _, k := range keys {
		table.Append(k,
			fmt.Sprintf("%.3f", b.ComponentsBefore[k]),
			fmt.Sprintf("%.3f", b.ComponentsAfter[k]),
		)
	}
	table.Render()

	fmt.Fprintf(w, "round factor %.3f  |  team bonus %.1f  |  final %.2f\n",
		b.RoundFactor, b.TeamWinBonus, b.Final)
	if b.Role.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", b.Role.Warning)
	}
}

func roleLabel(b scoring.Breakdown) string {
	if b.Role.Role == "" {
		return "none"
	}
	return b.Role.Role
}
