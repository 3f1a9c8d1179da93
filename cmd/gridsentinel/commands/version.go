package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X GridSentinel/cmd/gridsentinel/commands.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gridsentinel %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
