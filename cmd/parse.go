package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/demo"
	"github.com/fantasycs/mapscore/internal/extract"
	"github.com/fantasycs/mapscore/internal/report"
)

var (
	parseMapName string
	parseForce   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <demo.dem>",
	Short: "Parse a demo recording and store per-map stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseMapName, "map-name", "", "map name override when the demo header omits it")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "re-import even if this recording is already stored")
}

func runParse(cmd *cobra.Command, args []string) error {
	demoPath := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Parsing %s...\n", demoPath)
	table, err := demo.Parse(demoPath)
	if err != nil {
		return fmt.Errorf("parse demo: %w", err)
	}

	if !parseForce {
		exists, err := db.MapExists(table.SourceHash)
		if err != nil {
			return fmt.Errorf("check map: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Recording %s already stored, showing cached results.\n", table.SourceHash[:12])
			return showByRef(db, table.SourceHash)
		}
	}

	switch {
	case table.MapName != "":
	case parseMapName != "":
		table.MapName = parseMapName
	default:
		table.MapName = demo.MapNameFromPath(demoPath)
	}

	res, err := extract.Extract(table)
	if err != nil {
		if errors.Is(err, extract.ErrInsufficientData) {
			return fmt.Errorf("demo has no usable rounds: %w", err)
		}
		return fmt.Errorf("extract: %w", err)
	}

	mapID, err := db.SaveMapResult(res, table.SourceHash)
	if err != nil {
		return fmt.Errorf("store map: %w", err)
	}

	report.PrintResultSummary(os.Stdout, res)
	report.PrintScoreboard(os.Stdout, res.Players)
	fmt.Fprintf(os.Stdout, "\nStored as map %d (%s).\n", mapID, table.SourceHash[:12])
	return nil
}
