package sources

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the per-source sync settings loaded from the sources file.
// A missing file or missing fields fall back to built-in defaults, so the
// service runs without any configuration present.
type Config struct {
	Economics EconomicsSource `yaml:"economics"`
	Earnings  EarningsSource  `yaml:"earnings"`
}

type EconomicsSource struct {
	URL             string `yaml:"url"`
	Enabled         bool   `yaml:"enabled"`
	RefreshInterval int    `yaml:"refresh_interval"`
	Timeout         int    `yaml:"timeout"`
}

type EarningsSource struct {
	BaseURL         string  `yaml:"base_url"`
	Enabled         bool    `yaml:"enabled"`
	RefreshInterval int     `yaml:"refresh_interval"`
	Timeout         int     `yaml:"timeout"`
	PageSize        int     `yaml:"page_size"`
	MinMarketCap    float64 `yaml:"min_market_cap"`
	LookbackDays    int     `yaml:"lookback_days"`
}

func defaultConfig() *Config {
	return &Config{
		Economics: EconomicsSource{
			URL:             "https://www.forexfactory.com/calendar",
			Enabled:         true,
			RefreshInterval: 86400,
			Timeout:         30,
		},
		Earnings: EarningsSource{
			BaseURL:         "https://query1.finance.yahoo.com",
			Enabled:         true,
			RefreshInterval: 86400,
			Timeout:         30,
			PageSize:        100,
			MinMarketCap:    1_000_000_000,
			LookbackDays:    1,
		},
	}
}

// Load reads the sources file at path. Unmarshalling happens over a
// pre-filled default config, so only the fields present in the file are
// overridden.
func Load(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Sources file not found, using defaults", "path", path)
			return config, nil
		}
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}

	slog.Debug("Sources configuration loaded", "path", path,
		"economics_enabled", config.Economics.Enabled, "earnings_enabled", config.Earnings.Enabled)

	return config, nil
}

func validateConfig(config *Config) error {
	requiredFields := map[string]string{
		"economics URL":     config.Economics.URL,
		"earnings base URL": config.Earnings.BaseURL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"economics refresh interval": config.Economics.RefreshInterval,
		"economics timeout":          config.Economics.Timeout,
		"earnings refresh interval":  config.Earnings.RefreshInterval,
		"earnings timeout":           config.Earnings.Timeout,
		"earnings lookback days":     config.Earnings.LookbackDays,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if config.Earnings.PageSize <= 0 {
		return fmt.Errorf("earnings page size must be positive")
	}
	if config.Earnings.MinMarketCap < 0 {
		return fmt.Errorf("earnings minimum market cap must be non-negative")
	}

	return nil
}
