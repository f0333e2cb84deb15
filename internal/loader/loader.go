// Package loader handles configuration file loading and validation.
//
// This package is responsible for:
//   - Loading YAML configuration files
//   - Expanding environment variables
//   - Filling unset fields with documented defaults
package loader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plazalytics/plazacache/config"
)

// Config is the daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches log output from text to JSON.
	LogJSON bool `yaml:"log_json"`

	// MaxBodyBytes limits uploaded period payload size.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	Cache    CacheConfig    `yaml:"cache"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
}

// CacheConfig holds the tunables of the two cache levels.
type CacheConfig struct {
	MaxPeriods        int `yaml:"max_periods"`
	MaxResults        int `yaml:"max_results"`
	ResultTTLSec      int `yaml:"result_ttl_sec"`
	SweepKeepHistoric int `yaml:"sweep_keep_historic"`
	AggregateWorkers  int `yaml:"aggregate_workers"`
}

// WatchdogConfig controls the background maintenance loop.
type WatchdogConfig struct {
	// Disabled turns the loop off; maintenance then only runs when the
	// orchestrator calls the maintenance endpoints.
	Disabled bool `yaml:"disabled"`

	IntervalSec int `yaml:"interval_sec"`

	// CurrentYear protects that year's periods from the sweep.
	// Zero derives it from the clock on every cycle.
	CurrentYear uint32 `yaml:"current_year"`
}

// DefaultConfig returns a config populated with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:       config.DefaultListenAddress,
		LogLevel:     "info",
		MaxBodyBytes: config.DefaultMaxBodyBytes,
		Cache: CacheConfig{
			MaxPeriods:        config.DefaultMaxPeriods,
			MaxResults:        config.DefaultMaxResults,
			ResultTTLSec:      int(config.DefaultResultTTL / time.Second),
			SweepKeepHistoric: config.DefaultSweepKeepHistoric,
			AggregateWorkers:  config.DefaultAggregateWorkers,
		},
		Watchdog: WatchdogConfig{
			IntervalSec: int(config.DefaultWatchdogInterval / time.Second),
		},
	}
}

// Load loads configuration from a YAML file, expanding environment variables
// and filling unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Cache.MaxPeriods <= 0 {
		return fmt.Errorf("cache.max_periods must be positive, got %d", c.Cache.MaxPeriods)
	}
	if c.Cache.MaxResults <= 0 {
		return fmt.Errorf("cache.max_results must be positive, got %d", c.Cache.MaxResults)
	}
	if c.Cache.ResultTTLSec <= 0 {
		return fmt.Errorf("cache.result_ttl_sec must be positive, got %d", c.Cache.ResultTTLSec)
	}
	if c.Cache.SweepKeepHistoric < 0 {
		return fmt.Errorf("cache.sweep_keep_historic must not be negative, got %d", c.Cache.SweepKeepHistoric)
	}
	if !c.Watchdog.Disabled && c.Watchdog.IntervalSec <= 0 {
		return fmt.Errorf("watchdog.interval_sec must be positive, got %d", c.Watchdog.IntervalSec)
	}
	return nil
}

// ResultTTL returns the configured result TTL as a duration.
func (c *Config) ResultTTL() time.Duration {
	return time.Duration(c.Cache.ResultTTLSec) * time.Second
}

// WatchdogInterval returns the configured watchdog cadence as a duration.
func (c *Config) WatchdogInterval() time.Duration {
	return time.Duration(c.Watchdog.IntervalSec) * time.Second
}
