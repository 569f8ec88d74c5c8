package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored maps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		maps, err := db.ListMaps()
		if err != nil {
			return fmt.Errorf("list maps: %w", err)
		}
		if len(maps) == 0 {
			fmt.Fprintln(os.Stdout, "No maps stored yet. Run `mapscore parse <demo.dem>` first.")
			return nil
		}
		report.PrintMapList(os.Stdout, maps)
		return nil
	},
}
