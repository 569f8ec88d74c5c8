package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantasycs/mapscore/internal/roles"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List available role badges",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range roles.Names() {
			fmt.Fprintln(os.Stdout, name)
		}
	},
}
