package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/model"
	"github.com/fantasycs/mapscore/internal/report"
	"github.com/fantasycs/mapscore/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <map-id|hash-prefix>",
	Short: "Show the scoreboard for a stored map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return showByRef(db, args[0])
	},
}

func showByRef(db *storage.DB, ref string) error {
	m, err := db.GetMap(ref)
	if err != nil {
		return err
	}
	rows, err := db.PlayerStatsForMap(m.ID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	report.PrintMapSummary(os.Stdout, m)
	players := make([]model.PlayerMapStats, 0, len(rows))
	for _, r := range rows {
		players = append(players, r.Stats)
	}
	report.PrintScoreboard(os.Stdout, players)
	return nil
}
