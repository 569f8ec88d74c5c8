package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// metricsFile is the on-disk shape for externally sourced stat feeds, keyed
// by player nickname.
type metricsFile struct {
	Players map[string]map[string]float64 `yaml:"players"`
}

var importCmd = &cobra.Command{
	Use:   "import <map-id|hash-prefix> <metrics.yaml>",
	Short: "Patch stored stat lines with externally sourced metrics",
	Long: `Patch a map's stat lines with metrics that cannot be derived from the
recording itself, such as an HLTV-style composite rating. Metric names
resolve through an alias table; unknown names are reported and dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	mapRef, path := args[0], args[1]

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read metrics file: %w", err)
	}
	var mf metricsFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return fmt.Errorf("decode metrics file: %w", err)
	}
	if len(mf.Players) == 0 {
		return fmt.Errorf("%s names no players", path)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMap(mapRef)
	if err != nil {
		return err
	}

	nicknames := make([]string, 0, len(mf.Players))
	for nickname := range mf.Players {
		nicknames = append(nicknames, nickname)
	}
	sort.Strings(nicknames)

	for _, nickname := range nicknames {
		metrics := mf.Players[nickname]
		playerID, err := db.ResolvePlayer(nickname, "")
		if err != nil {
			return fmt.Errorf("resolve %s: %w", nickname, err)
		}
		applied, dropped, err := db.PatchPlayerMapStats(m.ID, playerID, metrics)
		if err != nil {
			return fmt.Errorf("patch %s: %w", nickname, err)
		}
		fmt.Fprintf(os.Stdout, "%s: applied %s\n", nickname, strings.Join(applied, ", "))
		if len(dropped) > 0 {
			fmt.Fprintf(os.Stderr, "%s: dropped unknown metrics %s\n", nickname, strings.Join(dropped, ", "))
		}
	}
	return nil
}
