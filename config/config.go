package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon configuration loaded from TOML.
type Config struct {
	StoragePath string        `toml:"StoragePath"`
	Market      MarketConfig  `toml:"market"`
	Oracle      OracleConfig  `toml:"oracle"`
	Swap        SwapConfig    `toml:"swap"`
	Metrics     MetricsConfig `toml:"metrics"`
}

// MarketConfig describes the traded currency pair.
type MarketConfig struct {
	BaseSymbol   string `toml:"BaseSymbol"`
	StableSymbol string `toml:"StableSymbol"`
	BaseDecimals uint8  `toml:"BaseDecimals"`
}

// OracleConfig controls oracle selection and freshness.
type OracleConfig struct {
	Priority           []string `toml:"Priority"`
	MaxQuoteAgeSeconds int64    `toml:"MaxQuoteAgeSeconds"`
}

// SwapConfig bounds swap execution.
type SwapConfig struct {
	SlippageBps uint64 `toml:"SlippageBps"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	ListenAddress string `toml:"ListenAddress"`
}

// Load reads and normalises the configuration file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg.Normalise(), nil
}

// Normalise applies defaults and canonical casing to the configuration.
func (c Config) Normalise() Config {
	cfg := c
	if strings.TrimSpace(cfg.StoragePath) == "" {
		cfg.StoragePath = "./launchfund-data"
	}
	if sym := strings.ToUpper(strings.TrimSpace(cfg.Market.BaseSymbol)); sym != "" {
		cfg.Market.BaseSymbol = sym
	} else {
		cfg.Market.BaseSymbol = "SOL"
	}
	if sym := strings.ToUpper(strings.TrimSpace(cfg.Market.StableSymbol)); sym != "" {
		cfg.Market.StableSymbol = sym
	} else {
		cfg.Market.StableSymbol = "USDC"
	}
	if cfg.Market.BaseDecimals == 0 {
		cfg.Market.BaseDecimals = 9
	}
	if len(cfg.Oracle.Priority) == 0 {
		cfg.Oracle.Priority = []string{"manual"}
	}
	priority := make([]string, 0, len(cfg.Oracle.Priority))
	for _, name := range cfg.Oracle.Priority {
		canonical := strings.ToLower(strings.TrimSpace(name))
		if canonical != "" {
			priority = append(priority, canonical)
		}
	}
	cfg.Oracle.Priority = priority
	if cfg.Oracle.MaxQuoteAgeSeconds <= 0 {
		cfg.Oracle.MaxQuoteAgeSeconds = 60
	}
	if cfg.Swap.SlippageBps == 0 || cfg.Swap.SlippageBps >= 10_000 {
		cfg.Swap.SlippageBps = 50
	}
	if strings.TrimSpace(cfg.Metrics.ListenAddress) == "" {
		cfg.Metrics.ListenAddress = ":9464"
	}
	return cfg
}

// MaxQuoteAge returns the configured staleness bound as a duration.
func (c Config) MaxQuoteAge() time.Duration {
	return time.Duration(c.Oracle.MaxQuoteAgeSeconds) * time.Second
}
