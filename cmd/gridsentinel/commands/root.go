package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gridsentinel",
	Short: "GridSentinel - grid trading suitability screener",
	Long: `GridSentinel evaluates whether a stock suits grid trading and, for
suitable symbols, proposes a price grid and paper-trades it.

Examples:
  gridsentinel evaluate 600000
  gridsentinel serve --addr :8080
  gridsentinel factors init
  gridsentinel paper 600000 --bars 60`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfig, "config file (default configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
