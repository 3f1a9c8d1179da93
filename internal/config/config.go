package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"GridSentinel/internal/logger"
	"GridSentinel/internal/strategy"
)

// Data source types.
const (
	SourceMock   = "mock"
	SourceYahoo  = "yahoo"
	SourceSQLite = "sqlite"
)

// Strategy defaults that an explicit zero in the file overrides.
const (
	DefaultFeeRate          = 0.001
	DefaultStopLossPctBelow = 0.05
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Type        string  `yaml:"type"`
		SQLitePath  string  `yaml:"sqlite_path"`
		RatePerSec  float64 `yaml:"rate_per_sec"`
		HistoryDays int     `yaml:"history_days"`
	} `yaml:"data_source"`
	Factors struct {
		ConfigPath string `yaml:"config_path"`
	} `yaml:"factors"`
	Watchlist []string `yaml:"watchlist"`
	Schedule  struct {
		EvaluateCron string `yaml:"evaluate_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Paper struct {
		FeedURL   string `yaml:"feed_url"`
		StateFile string `yaml:"state_file"`
	} `yaml:"paper"`
	Strategy strategy.Config `yaml:"strategy"`
	Log      logger.Config   `yaml:"log"`
	Proxy    string          `yaml:"proxy"`
}

// LoadDotEnv loads the first .env file found in the working directory or its parent.
// Existing environment variables are not overwritten.
func LoadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// preset so an explicit zero in the file survives
	cfg.Strategy.FeeRate = DefaultFeeRate
	cfg.Strategy.StopLossPctBelow = DefaultStopLossPctBelow

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":    &c.Telegram.ChatID,
		"DATA_SOURCE":         &c.DataSource.Type,
		"HISTORY_SQLITE_PATH": &c.DataSource.SQLitePath,
		"FACTOR_CONFIG_PATH":  &c.Factors.ConfigPath,
		"CRON_EVALUATE":       &c.Schedule.EvaluateCron,
		"SQLITE_PATH":         &c.Database.SQLitePath,
		"SERVER_ADDR":         &c.Server.Addr,
		"PAPER_FEED_URL":      &c.Paper.FeedURL,
		"LOG_LEVEL":           &c.Log.Level,
		"LOG_FORMAT":          &c.Log.Format,
		"HTTPS_PROXY":         &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Watchlist = append(c.Watchlist, s)
			}
		}
	}
	if v := os.Getenv("DATA_RATE_PER_SEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse DATA_RATE_PER_SEC: %w", err)
		}
		c.DataSource.RatePerSec = f
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Type == "" {
		c.DataSource.Type = SourceMock
	}
	c.DataSource.Type = strings.ToLower(c.DataSource.Type)
	if c.DataSource.RatePerSec == 0 {
		c.DataSource.RatePerSec = 2
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 180
	}
	if c.Schedule.EvaluateCron == "" {
		c.Schedule.EvaluateCron = "0 30 15 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/grid_sentinel.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Paper.StateFile == "" {
		c.Paper.StateFile = "data/strategy_state.json"
	}
	if c.Strategy.AllocateQuote == 0 {
		c.Strategy.AllocateQuote = 10000
	}
	if c.Strategy.MaxOpenOrders == 0 {
		c.Strategy.MaxOpenOrders = strategy.DefaultMaxOpenOrders
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Type {
	case SourceMock, SourceYahoo:
	case SourceSQLite:
		if c.DataSource.SQLitePath == "" {
			return errors.New("data_source.sqlite_path is required for the sqlite source")
		}
	default:
		return fmt.Errorf("data_source.type %q is not one of mock, yahoo, sqlite", c.DataSource.Type)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.DataSource.HistoryDays < 0 {
		return errors.New("data_source.history_days must not be negative")
	}
	if c.Strategy.AllocateQuote < 0 {
		return errors.New("strategy.allocate_quote must not be negative")
	}
	if c.Strategy.FeeRate < 0 || c.Strategy.FeeRate >= 1 {
		return fmt.Errorf("strategy.fee_rate %g must be in [0, 1)", c.Strategy.FeeRate)
	}
	if c.Strategy.CapitalReservePct < 0 || c.Strategy.CapitalReservePct >= 1 {
		return fmt.Errorf("strategy.capital_reserve_pct %g must be in [0, 1)", c.Strategy.CapitalReservePct)
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
