package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"GridSentinel/internal/factor"
	"GridSentinel/internal/notifier"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Show and validate the factor configuration",
	RunE:  runFactors,
}

var (
	factorsInitPath  string
	factorsInitForce bool
)

var factorsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default factors.yaml",
	Long: `Writes the built-in factor thresholds to factors.yaml. Without --path the
first writable location is used: $FACTOR_CONFIG_DIR, ./config, then the
directory of the executable.`,
	RunE: runFactorsInit,
}

func init() {
	rootCmd.AddCommand(factorsCmd)
	factorsCmd.AddCommand(factorsInitCmd)
	factorsInitCmd.Flags().StringVar(&factorsInitPath, "path", "", "target file")
	factorsInitCmd.Flags().BoolVar(&factorsInitForce, "force", false, "overwrite an existing file")
}

func runFactors(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fc, err := loadFactors(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, stripTags(notifier.FormatFactorList(fc)))
	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal factor config: %w", err)
	}
	fmt.Fprintln(out, string(data))
	fmt.Fprintln(out, "factor config is valid")
	return nil
}

func runFactorsInit(cmd *cobra.Command, args []string) error {
	if factorsInitPath != "" && !factorsInitForce {
		if _, err := os.Stat(factorsInitPath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", factorsInitPath)
		}
	}
	path, err := factor.Defaults().SaveToFile(factorsInitPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
