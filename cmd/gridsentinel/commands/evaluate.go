package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"GridSentinel/internal/notifier"
)

var evaluateJSON bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate SYMBOL...",
	Short: "Evaluate grid trading suitability",
	Long: `Runs every enabled factor for each symbol and prints the report.
Suitable symbols also get a proposed price grid.

Example:
  gridsentinel evaluate 600000 000001
  gridsentinel evaluate AAPL --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "print the result as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fetcher, closer, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, err := newService(cfg, fetcher)
	if err != nil {
		return err
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		symbol := strings.ToUpper(arg)
		run, res, err := svc.EvaluateDetailed(cmd.Context(), symbol)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", symbol, err)
		}
		if err := rec.RecordEvaluation(res); err != nil {
			return fmt.Errorf("record evaluation: %w", err)
		}

		if evaluateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			continue
		}
		fmt.Fprintln(out, stripTags(notifier.FormatEvaluationReport(res, run)))
		fmt.Fprintln(out, run.Summary())
	}
	return nil
}

var tagReplacer = strings.NewReplacer("<b>", "", "</b>", "")

// stripTags removes the Telegram HTML markup for terminal output.
func stripTags(s string) string { return tagReplacer.Replace(s) }
