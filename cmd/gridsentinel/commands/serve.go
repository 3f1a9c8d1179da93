package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"GridSentinel/internal/api"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/scheduler"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the evaluation scheduler",
	Long: `Starts the HTTP API, the cron watchlist evaluation and, when Telegram is
configured, command polling.

Endpoints:
  GET  /health
  GET  /api/evaluate/{symbol}
  GET  /api/factors
  GET  /api/evaluations?symbol=&limit=`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log := logger.Default().WithComponent("cli")

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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tn := newNotifier(cfg)
	var n scheduler.Notifier
	if tn != nil {
		n = tn
	}
	sched := scheduler.NewScheduler(ctx, svc, n, rec, cfg.Watchlist)
	if err := sched.RegisterAll(cfg.Schedule.EvaluateCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}
	if cfg.Schedule.RunOnStart {
		log.Info("run_on_start enabled, evaluating watchlist now")
		go sched.RunNow()
	}

	server := api.New(cfg.Server.Addr, api.NewRouter(api.NewHandler(svc, rec)))
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	fmt.Fprintf(cmd.OutOrStdout(), "GridSentinel listening on %s, press Ctrl+C to stop\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
