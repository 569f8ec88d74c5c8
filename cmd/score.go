package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/report"
	"github.com/fantasycs/mapscore/internal/scoring"
)

var (
	scoreMapRef     string
	scoreRoster     string
	scoreParamsFile string
	scoreBreakdown  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute fantasy points for a roster on a stored map",
	Long: `Compute fantasy points for every roster slot whose player has a stat
line on the given map. Scores are stored and re-running the command
recalculates them, so parameter or role changes take effect on old maps.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreMapRef, "map", "", "map id or source-hash prefix (required)")
	scoreCmd.Flags().StringVar(&scoreRoster, "roster", "", "roster name (required)")
	scoreCmd.Flags().StringVar(&scoreParamsFile, "params", "", "YAML file overriding scoring parameters")
	scoreCmd.Flags().BoolVar(&scoreBreakdown, "breakdown", false, "print the full component trace per player")
	scoreCmd.MarkFlagRequired("map")
	scoreCmd.MarkFlagRequired("roster")
}

func runScore(cmd *cobra.Command, args []string) error {
	params := scoring.DefaultParams()
	if scoreParamsFile != "" {
		var err error
		params, err = scoring.LoadParams(scoreParamsFile)
		if err != nil {
			return fmt.Errorf("load params: %w", err)
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMap(scoreMapRef)
	if err != nil {
		return err
	}
	entries, err := db.RosterEntries(scoreRoster)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("roster %q has no entries", scoreRoster)
	}

	statRows, err := db.PlayerStatsForMap(m.ID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	byPlayer := make(map[int64]int, len(statRows))
	for i, r := range statRows {
		byPlayer[r.PlayerID] = i
	}

	scored := 0
	for _, e := range entries {
		i, ok := byPlayer[e.PlayerID]
		if !ok {
			fmt.Fprintf(os.Stderr, "skipping %s: no stat line on map %d\n", e.Nickname, m.ID)
			continue
		}
		row := statRows[i]

		points, breakdown := scoring.Compute(
			&row.Stats, m.PlayedRounds,
			m.WinnerTeamID, row.TeamID,
			e.RoleBadge, params,
		)
		raw, err := json.Marshal(breakdown)
		if err != nil {
			return fmt.Errorf("encode breakdown: %w", err)
		}
		if err := db.SaveFantasyPoints(e.ID, m.ID, e.PlayerID, points, raw); err != nil {
			return err
		}
		scored++

		if scoreBreakdown {
			report.PrintBreakdown(os.Stdout, e.Nickname, breakdown)
		}
	}

	report.PrintMapSummary(os.Stdout, m)
	rows, err := db.FantasyPointsForRoster(scoreRoster, m.ID)
	if err != nil {
		return fmt.Errorf("load points: %w", err)
	}
	report.PrintPointsTable(os.Stdout, rows)
	fmt.Fprintf(os.Stdout, "\nScored %d of %d roster slots.\n", scored, len(entries))
	return nil
}
