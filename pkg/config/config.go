// Package config defines the pipeline configuration and its defaults.
//
// All tunables that the pipeline depends on (country list, indicator map,
// year window, retry and pacing behavior, database connection) live here as
// an explicit value handed to each component at construction. Nothing in
// this module reads configuration from process-wide mutable state.
package config

import (
	"fmt"
	"time"
)

// DB holds PostgreSQL connection settings.
type DB struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// Config contains the full pipeline configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the World Bank API root, without a trailing slash.
	BaseURL string `koanf:"base_url"`

	// UserAgent identifies this client on every request.
	UserAgent string `koanf:"user_agent"`

	// StartYear and EndYear bound the requested date range (inclusive).
	StartYear int `koanf:"start_year"`
	EndYear   int `koanf:"end_year"`

	// PerPage is the requested page size.
	PerPage int `koanf:"per_page"`

	// Retries is the number of attempts per page request, including the first.
	Retries int `koanf:"retries"`

	// BackoffBase is the exponential backoff base: attempt n waits
	// BackoffBase^n seconds before the next attempt.
	BackoffBase float64 `koanf:"backoff_base"`

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RequestDelay is the mandatory pause between (country, indicator) pairs.
	RequestDelay time.Duration `koanf:"request_delay"`

	// Countries is the list of ISO3 codes to fetch, in fetch order.
	Countries []string `koanf:"countries"`

	// Indicators maps indicator names to World Bank indicator codes.
	Indicators map[string]string `koanf:"indicators"`

	DB DB `koanf:"db"`
}

// Default returns the built-in configuration: the 54 African countries and
// the two staging indicators, fetched for 2000-2023.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		BaseURL:        "https://api.worldbank.org/v2",
		UserAgent:      "wb-pipeline/1.0",
		StartYear:      2000,
		EndYear:        2023,
		PerPage:        1000,
		Retries:        3,
		BackoffBase:    2.0,
		RequestTimeout: 30 * time.Second,
		RequestDelay:   150 * time.Millisecond,
		Countries: []string{
			"DZA", "AGO", "BEN", "BWA", "BFA", "BDI", "CPV", "CMR", "CAF", "TCD",
			"COM", "COD", "COG", "CIV", "DJI", "EGY", "GNQ", "ERI", "SWZ", "ETH",
			"GAB", "GMB", "GHA", "GIN", "GNB", "KEN", "LSO", "LBR", "LBY", "MDG",
			"MWI", "MLI", "MRT", "MUS", "MAR", "MOZ", "NAM", "NER", "NGA", "RWA",
			"STP", "SEN", "SLE", "SOM", "ZAF", "SSD", "SDN", "TZA", "TGO", "TUN",
			"UGA", "ZMB", "ZWE", "SYC",
		},
		Indicators: map[string]string{
			"gdp_growth":   "NY.GDP.MKTP.KD.ZG", // GDP growth (annual %)
			"unemployment": "SL.UEM.TOTL.ZS",    // Unemployment, total (% of labour force)
		},
		DB: DB{
			Host:    "localhost",
			Port:    5432,
			Name:    "worldbank_africa",
			User:    "postgres",
			SSLMode: "disable",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent must not be empty")
	}
	if c.StartYear > c.EndYear {
		return fmt.Errorf("start_year %d is after end_year %d", c.StartYear, c.EndYear)
	}
	if c.PerPage < 1 {
		return fmt.Errorf("per_page must be >= 1 (got %d)", c.PerPage)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be >= 1 (got %d)", c.Retries)
	}
	if c.BackoffBase < 1 {
		return fmt.Errorf("backoff_base must be >= 1 (got %g)", c.BackoffBase)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must not be negative")
	}
	if len(c.Countries) == 0 {
		return fmt.Errorf("countries must not be empty")
	}
	if len(c.Indicators) == 0 {
		return fmt.Errorf("indicators must not be empty")
	}
	if c.DB.Host == "" || c.DB.Name == "" || c.DB.User == "" {
		return fmt.Errorf("db host, name and user must not be empty")
	}
	return nil
}

// DSN returns the lib/pq keyword/value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
