package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"GridSentinel/internal/broker"
	"GridSentinel/internal/collector"
	"GridSentinel/internal/config"
	"GridSentinel/internal/feed"
	"GridSentinel/internal/grid"
	"GridSentinel/internal/ledger"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/model"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/strategy"
	"GridSentinel/internal/trader"
)

var (
	paperFeed    string
	paperURL     string
	paperBars    int
	paperSeed    uint64
	paperForce   bool
	paperRestore bool
	paperLower   float64
	paperUpper   float64
	paperCount   int
)

var paperCmd = &cobra.Command{
	Use:   "paper SYMBOL",
	Short: "Paper-trade a grid on a symbol",
	Long: `Evaluates the symbol, builds a grid around its latest price and drives a
grid strategy against a simulated broker.

Feeds:
  replay  bars from the data source (mock: a fresh path from the latest price)
  ws      live bars from a websocket endpoint (--url or paper.feed_url)

Example:
  gridsentinel paper 600000 --bars 120
  gridsentinel paper BTCUSDT --feed ws --url wss://example.com/bars --lower 90 --upper 110`,
	Args: cobra.ExactArgs(1),
	RunE: runPaper,
}

func init() {
	rootCmd.AddCommand(paperCmd)
	paperCmd.Flags().StringVar(&paperFeed, "feed", "replay", "bar feed: replay or ws")
	paperCmd.Flags().StringVar(&paperURL, "url", "", "websocket url (overrides paper.feed_url)")
	paperCmd.Flags().IntVar(&paperBars, "bars", 60, "bars to replay")
	paperCmd.Flags().Uint64Var(&paperSeed, "seed", 1, "seed of the mock replay path")
	paperCmd.Flags().BoolVar(&paperForce, "force", false, "trade even when the symbol is not suitable")
	paperCmd.Flags().BoolVar(&paperRestore, "restore", false, "resume from the saved strategy snapshot")
	paperCmd.Flags().Float64Var(&paperLower, "lower", 0, "grid lower bound (skips evaluation)")
	paperCmd.Flags().Float64Var(&paperUpper, "upper", 0, "grid upper bound (skips evaluation)")
	paperCmd.Flags().IntVar(&paperCount, "grid-count", grid.Count, "grid count with --lower/--upper")
}

// errNotSuitable is returned when evaluation rejects the symbol and --force is not set.
var errNotSuitable = errors.New("symbol is not suitable for grid trading")

func runPaper(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(args[0])
	out := cmd.OutOrStdout()
	log := logger.Default().WithComponent("cli").WithField("symbol", symbol)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, closer, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	stratCfg := cfg.Strategy
	stratCfg.Symbol = symbol
	lastPrice := 0.0

	if paperLower > 0 || paperUpper > 0 {
		stratCfg.LowerBound, stratCfg.UpperBound, stratCfg.GridCount = paperLower, paperUpper, paperCount
	} else {
		svc, err := newService(cfg, fetcher)
		if err != nil {
			return err
		}

		run, res, err := svc.EvaluateDetailed(ctx, symbol)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", symbol, err)
		}
		fmt.Fprintln(out, stripTags(notifier.FormatEvaluationReport(res, run)))

		gc := res.GridConfig
		if gc == nil {
			if !paperForce {
				return fmt.Errorf("%s: %w (use --force to trade anyway)", symbol, errNotSuitable)
			}
			data, err := svc.Collector.Collect(ctx, symbol)
			if err != nil {
				return fmt.Errorf("collect %s: %w", symbol, err)
			}
			price, ok := data.LatestPrice()
			if !ok {
				return fmt.Errorf("%s: no price history", symbol)
			}
			g := grid.NewGenerator(symbol, price).Generate()
			gc = &g
		}
		stratCfg = strategy.FromGrid(stratCfg, *gc)
		lastPrice = gc.CurrentPrice
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Paper.StateFile), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	led, err := ledger.Open(cfg.Paper.StateFile)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	saved, restore := led.Latest()
	restore = restore && paperRestore && saved.Symbol == symbol
	if restore && saved.GridCount > 0 {
		stratCfg.LowerBound, stratCfg.UpperBound, stratCfg.GridCount = saved.LowerBound, saved.UpperBound, saved.GridCount
	}

	paper := broker.NewPaper(stratCfg.FeeRate)
	strat, err := strategy.New(stratCfg, paper)
	if err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	if restore {
		if err := strat.Restore(saved); err != nil {
			return fmt.Errorf("restore %s: %w", symbol, err)
		}
		log.WithField("tick", saved.TickID).
			WithField("grid", fmt.Sprintf("%g..%g/%d", saved.LowerBound, saved.UpperBound, saved.GridCount)).
			Info("strategy restored from snapshot")
	}

	f, err := newPaperFeed(ctx, cfg, fetcher, symbol, lastPrice)
	if err != nil {
		return err
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	runner := trader.NewRunner(strat, paper, f, rec, led)
	if tn := newNotifier(cfg); tn != nil {
		runner.OnExit = func(snap model.StrategySnapshot) {
			if err := tn.SendWithRetry(ctx, notifier.FormatStrategyStatus(snap), 3); err != nil {
				log.WithError(err).Error("send exit notification")
			}
		}
	}

	fmt.Fprintf(out, "paper trading %s on %d levels %.2f ~ %.2f\n",
		symbol, stratCfg.GridCount+1, stratCfg.LowerBound, stratCfg.UpperBound)
	snap, err := runner.Run(ctx)
	fmt.Fprintln(out, stripTags(notifier.FormatStrategyStatus(snap)))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newPaperFeed(ctx context.Context, cfg *config.Config, fetcher collector.Fetcher, symbol string, lastPrice float64) (feed.Feed, error) {
	switch paperFeed {
	case "ws":
		url := paperURL
		if url == "" {
			url = cfg.Paper.FeedURL
		}
		if url == "" {
			return nil, errors.New("ws feed needs --url or paper.feed_url")
		}
		return feed.NewWebSocket(url, symbol), nil
	case "replay":
		if m, ok := fetcher.(*collector.MockFetcher); ok && lastPrice > 0 {
			fresh := *m
			fresh.Seed = paperSeed
			fresh.BasePrice = lastPrice
			fetcher = &fresh
		}
		bars, err := fetcher.FetchDailyBars(ctx, symbol, paperBars)
		if err != nil {
			return nil, fmt.Errorf("fetch replay bars: %w", err)
		}
		if len(bars) > paperBars {
			bars = bars[len(bars)-paperBars:]
		}
		return feed.NewReplay(bars), nil
	default:
		return nil, fmt.Errorf("unknown feed %q, want replay or ws", paperFeed)
	}
}
