package factor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"GridSentinel/internal/logger"
)

// ConfigFileName is the file looked up in every candidate directory.
const ConfigFileName = "factors.yaml"

// EnvConfigDir names the environment variable holding an extra config directory.
const EnvConfigDir = "FACTOR_CONFIG_DIR"

// ValidationError reports an inconsistent threshold.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PERatioConfig holds the pe_ratio threshold.
type PERatioConfig struct {
	MaxPE float64 `yaml:"max_pe"`
}

func (c PERatioConfig) Validate() error {
	if c.MaxPE <= 0 {
		return ValidationError{"pe_ratio.max_pe", "must be > 0"}
	}
	return nil
}

// VolatilityConfig holds the annualized volatility band.
type VolatilityConfig struct {
	MinVolatility float64 `yaml:"min_volatility"`
	MaxVolatility float64 `yaml:"max_volatility"`
	LookbackDays  int     `yaml:"lookback_days"`
}

func (c VolatilityConfig) Validate() error {
	if c.LookbackDays < MinLookbackDays {
		return ValidationError{"volatility.lookback_days", fmt.Sprintf("must be >= %d", MinLookbackDays)}
	}
	if c.MaxVolatility <= c.MinVolatility {
		return ValidationError{"volatility.max_volatility", "must be > min_volatility"}
	}
	return nil
}

// VolumeConfig holds the minimum average volume in lots of 100 shares.
type VolumeConfig struct {
	MinVolume    int `yaml:"min_volume"`
	LookbackDays int `yaml:"lookback_days"`
}

func (c VolumeConfig) Validate() error {
	if c.MinVolume < 0 {
		return ValidationError{"volume.min_volume", "must be >= 0"}
	}
	return nil
}

// TrendConfig holds the annualized trend band.
type TrendConfig struct {
	MinTrend     float64 `yaml:"min_trend"`
	MaxTrend     float64 `yaml:"max_trend"`
	LookbackDays int     `yaml:"lookback_days"`
}

func (c TrendConfig) Validate() error {
	if c.LookbackDays < MinLookbackDays {
		return ValidationError{"trend.lookback_days", fmt.Sprintf("must be >= %d", MinLookbackDays)}
	}
	if c.MaxTrend <= c.MinTrend {
		return ValidationError{"trend.max_trend", "must be > min_trend"}
	}
	return nil
}

// PriceRangeConfig holds the acceptable latest-price band.
type PriceRangeConfig struct {
	MinPrice float64 `yaml:"min_price"`
	MaxPrice float64 `yaml:"max_price"`
}

func (c PriceRangeConfig) Validate() error {
	if c.MaxPrice <= c.MinPrice {
		return ValidationError{"price_range.max_price", "must be > min_price"}
	}
	return nil
}

// MarketCapConfig holds the market cap band in units of 1e8.
type MarketCapConfig struct {
	MinMarketCap float64 `yaml:"min_market_cap"`
	MaxMarketCap float64 `yaml:"max_market_cap"`
}

func (c MarketCapConfig) Validate() error {
	if c.MaxMarketCap <= c.MinMarketCap {
		return ValidationError{"market_cap.max_market_cap", "must be > min_market_cap"}
	}
	return nil
}

// TurnoverConfig holds the average turnover band as fractions.
type TurnoverConfig struct {
	MinTurnover  float64 `yaml:"min_turnover"`
	MaxTurnover  float64 `yaml:"max_turnover"`
	LookbackDays int     `yaml:"lookback_days"`
}

func (c TurnoverConfig) Validate() error {
	if c.MaxTurnover <= c.MinTurnover {
		return ValidationError{"turnover.max_turnover", "must be > min_turnover"}
	}
	return nil
}

// MinLookbackDays is the floor for volatility and trend windows.
const MinLookbackDays = 20

// NewPERatioConfig returns a validated pe_ratio config.
func NewPERatioConfig(maxPE float64) (PERatioConfig, error) {
	c := PERatioConfig{MaxPE: maxPE}
	return c, c.Validate()
}

// NewVolatilityConfig returns a validated volatility config.
func NewVolatilityConfig(min, max float64, lookbackDays int) (VolatilityConfig, error) {
	c := VolatilityConfig{MinVolatility: min, MaxVolatility: max, LookbackDays: lookbackDays}
	return c, c.Validate()
}

// NewVolumeConfig returns a validated volume config.
func NewVolumeConfig(minVolume, lookbackDays int) (VolumeConfig, error) {
	c := VolumeConfig{MinVolume: minVolume, LookbackDays: lookbackDays}
	return c, c.Validate()
}

// NewTrendConfig returns a validated trend config.
func NewTrendConfig(min, max float64, lookbackDays int) (TrendConfig, error) {
	c := TrendConfig{MinTrend: min, MaxTrend: max, LookbackDays: lookbackDays}
	return c, c.Validate()
}

// NewPriceRangeConfig returns a validated price_range config.
func NewPriceRangeConfig(min, max float64) (PriceRangeConfig, error) {
	c := PriceRangeConfig{MinPrice: min, MaxPrice: max}
	return c, c.Validate()
}

// NewMarketCapConfig returns a validated market_cap config.
func NewMarketCapConfig(min, max float64) (MarketCapConfig, error) {
	c := MarketCapConfig{MinMarketCap: min, MaxMarketCap: max}
	return c, c.Validate()
}

// NewTurnoverConfig returns a validated turnover config.
func NewTurnoverConfig(min, max float64, lookbackDays int) (TurnoverConfig, error) {
	c := TurnoverConfig{MinTurnover: min, MaxTurnover: max, LookbackDays: lookbackDays}
	return c, c.Validate()
}

// Config is the full factor configuration: which factors run and their thresholds.
type Config struct {
	EnabledFactors []string         `yaml:"enabled_factors"`
	PERatio        PERatioConfig    `yaml:"pe_ratio"`
	Volatility     VolatilityConfig `yaml:"volatility"`
	Volume         VolumeConfig     `yaml:"volume"`
	Trend          TrendConfig      `yaml:"trend"`
	PriceRange     PriceRangeConfig `yaml:"price_range"`
	MarketCap      MarketCapConfig  `yaml:"market_cap"`
	Turnover       TurnoverConfig   `yaml:"turnover"`

	// Source is the file the config was read from, empty for built-in defaults.
	Source string `yaml:"-"`
}

// Defaults returns the built-in configuration with every catalog factor enabled.
func Defaults() *Config {
	return &Config{
		EnabledFactors: Names(),
		PERatio:        PERatioConfig{MaxPE: 50},
		Volatility:     VolatilityConfig{MinVolatility: 0.05, MaxVolatility: 0.50, LookbackDays: 180},
		Volume:         VolumeConfig{MinVolume: 5000, LookbackDays: 180},
		Trend:          TrendConfig{MinTrend: -0.3, MaxTrend: 0.3, LookbackDays: 180},
		PriceRange:     PriceRangeConfig{MinPrice: 5, MaxPrice: 100},
		MarketCap:      MarketCapConfig{MinMarketCap: 50, MaxMarketCap: 1000},
		Turnover:       TurnoverConfig{MinTurnover: 0.01, MaxTurnover: 0.05, LookbackDays: 180},
	}
}

// Validate checks every sub-config.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		c.PERatio, c.Volatility, c.Volume, c.Trend, c.PriceRange, c.MarketCap, c.Turnover,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsFactorEnabled reports whether name is in the enabled list.
func (c *Config) IsFactorEnabled(name string) bool {
	for _, n := range c.EnabledFactors {
		if n == name {
			return true
		}
	}
	return false
}

// EnableFactor appends name to the enabled list if absent.
func (c *Config) EnableFactor(name string) {
	if !c.IsFactorEnabled(name) {
		c.EnabledFactors = append(c.EnabledFactors, name)
	}
}

// DisableFactor removes name from the enabled list.
func (c *Config) DisableFactor(name string) {
	kept := c.EnabledFactors[:0]
	for _, n := range c.EnabledFactors {
		if n != name {
			kept = append(kept, n)
		}
	}
	c.EnabledFactors = kept
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.EnabledFactors = append([]string(nil), c.EnabledFactors...)
	return &cp
}

// CandidatePaths lists config files in priority order, excluding an explicit path.
func CandidatePaths() []string {
	var paths []string
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		paths = append(paths, filepath.Join(dir, ConfigFileName))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, "config", ConfigFileName))
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "config", ConfigFileName))
	}
	return paths
}

var errNotFound = errors.New("config file not found")

// LoadFromFile resolves the configuration. An explicit path is tried first, then
// CandidatePaths, then built-in defaults. Missing or unparsable files are logged
// and skipped; a file that parses but fails validation is returned as an error.
func LoadFromFile(path string) (*Config, error) {
	log := logger.Default().WithComponent("factor_config")

	var paths []string
	if path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, CandidatePaths()...)

	for _, p := range paths {
		cfg, err := readFile(p)
		switch {
		case errors.Is(err, errNotFound):
			log.WithField("path", p).Debug("config file not found, skipping")
			continue
		case err != nil:
			var verr ValidationError
			if errors.As(err, &verr) {
				return nil, fmt.Errorf("load factor config %s: %w", p, err)
			}
			log.WithField("path", p).WithError(err).Warn("config file unreadable, skipping")
			continue
		}
		log.WithField("path", p).Info("factor config loaded")
		return cfg, nil
	}

	log.Info("no factor config file found, using defaults")
	return Defaults(), nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// SaveToFile writes the configuration as YAML. With an empty path the first
// candidate whose directory can be created and written is used. The written
// path is returned.
func (c *Config) SaveToFile(path string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("save factor config: %w", err)
	}

	if path == "" {
		for _, p := range CandidatePaths() {
			if writableDir(filepath.Dir(p)) {
				path = p
				break
			}
		}
		if path == "" {
			return "", errors.New("save factor config: no writable config path")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	logger.Default().WithComponent("factor_config").WithField("path", path).Info("factor config saved")
	return path, nil
}

func writableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
