package factor

import (
	"sync"

	"GridSentinel/internal/logger"
)

var (
	globalMu sync.RWMutex
	global   *Config
)

// Default returns the process-wide configuration, resolving it from the
// candidate paths on first use. Callers that need load errors surfaced should
// call Reload during startup.
func Default() *Config {
	globalMu.RLock()
	cfg := global
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		loaded, err := LoadFromFile("")
		if err != nil {
			logger.Default().WithComponent("factor_config").WithError(err).Error("invalid factor config, using defaults")
			loaded = Defaults()
		}
		global = loaded
	}
	return global
}

// Reload resolves the configuration again and installs it as the process-wide value.
func Reload(path string) (*Config, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	SetDefault(cfg)
	return cfg, nil
}

// SetDefault installs cfg as the process-wide configuration.
func SetDefault(cfg *Config) {
	globalMu.Lock()
	global = cfg
	globalMu.Unlock()
}

// Reset restores built-in defaults without touching the filesystem.
func Reset() {
	SetDefault(Defaults())
}
