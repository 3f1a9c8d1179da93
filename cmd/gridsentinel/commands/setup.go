package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"GridSentinel/internal/collector"
	"GridSentinel/internal/config"
	"GridSentinel/internal/factor"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/service"
)

// loadConfig reads .env and the YAML config, validates it and installs the logger.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()

	path := configFile
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger.SetDefault(logger.New(cfg.Log))
	return cfg, nil
}

// loadFactors resolves factors.yaml and installs it process-wide.
func loadFactors(cfg *config.Config) (*factor.Config, error) {
	fc, err := factor.Reload(cfg.Factors.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load factor config: %w", err)
	}
	return fc, nil
}

// newFetcher builds the configured market data source. The returned closer is never nil.
func newFetcher(cfg *config.Config) (collector.Fetcher, io.Closer, error) {
	switch cfg.DataSource.Type {
	case config.SourceYahoo:
		return collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RatePerSec), nopCloser{}, nil
	case config.SourceSQLite:
		h, err := collector.NewSQLiteHistory(cfg.DataSource.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		return h, h, nil
	default:
		return collector.NewMockFetcher(), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newService wires fetcher, collector and factor config into the evaluation service.
func newService(cfg *config.Config, fetcher collector.Fetcher) (*service.StockEvaluationService, error) {
	fc, err := loadFactors(cfg)
	if err != nil {
		return nil, err
	}
	logger.Default().WithComponent("cli").WithField("source", fetcher.Name()).Info("data source ready")
	return service.New(collector.NewCollector(fetcher, cfg.DataSource.HistoryDays), fc), nil
}

// newRecorder opens the SQLite recorder, falling back to a no-op recorder.
func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	log := logger.Default().WithComponent("cli")
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.WithError(err).Warn("create database dir failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.WithError(err).Warn("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// newNotifier returns nil when Telegram is not configured.
func newNotifier(cfg *config.Config) *notifier.TelegramNotifier {
	if !cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
}
