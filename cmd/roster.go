package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/report"
	"github.com/fantasycs/mapscore/internal/roles"
)

var rosterRole string

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage fantasy rosters",
}

var rosterAddCmd = &cobra.Command{
	Use:   "add <roster> <player>",
	Short: "Add a player to a roster, optionally with a role badge",
	Args:  cobra.ExactArgs(2),
	RunE:  runRosterAdd,
}

var rosterListCmd = &cobra.Command{
	Use:   "list [roster]",
	Short: "List roster slots",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRosterList,
}

func init() {
	rosterAddCmd.Flags().StringVar(&rosterRole, "role", "", "role badge (see `mapscore roles`)")
	rosterCmd.AddCommand(rosterAddCmd)
	rosterCmd.AddCommand(rosterListCmd)
}

func runRosterAdd(cmd *cobra.Command, args []string) error {
	roster, nickname := args[0], args[1]

	role := strings.ToUpper(strings.TrimSpace(rosterRole))
	if role != "" && !roles.Known(role) {
		// Unknown badges are kept: scoring treats them as no modifier and
		// flags the result, so a typo surfaces instead of failing the add.
		fmt.Fprintf(os.Stderr, "warning: unknown role %q (known: %s)\n",
			role, strings.Join(roles.Names(), ", "))
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	playerID, err := db.ResolvePlayer(nickname, "")
	if err != nil {
		return fmt.Errorf("resolve player: %w", err)
	}
	if _, err := db.UpsertRosterEntry(roster, playerID, role); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Added %s to roster %q", nickname, roster)
	if role != "" {
		fmt.Fprintf(os.Stdout, " as %s", role)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}

func runRosterList(cmd *cobra.Command, args []string) error {
	roster := ""
	if len(args) == 1 {
		roster = args[0]
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.RosterEntries(roster)
	if err != nil {
		return fmt.Errorf("list roster: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No roster entries.")
		return nil
	}
	report.PrintRoster(os.Stdout, entries)
	return nil
}
