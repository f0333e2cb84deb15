package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/plazalytics/plazacache/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if cfg.Cache.MaxPeriods != config.DefaultMaxPeriods {
		t.Errorf("expected default max periods %d, got %d", config.DefaultMaxPeriods, cfg.Cache.MaxPeriods)
	}
	if cfg.ResultTTL() != config.DefaultResultTTL {
		t.Errorf("expected default TTL %v, got %v", config.DefaultResultTTL, cfg.ResultTTL())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:9000"
log_level: debug
cache:
  max_periods: 12
  max_results: 50
watchdog:
  interval_sec: 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("listen not applied: %s", cfg.Listen)
	}
	if cfg.Cache.MaxPeriods != 12 || cfg.Cache.MaxResults != 50 {
		t.Errorf("cache overrides not applied: %+v", cfg.Cache)
	}
	// Unset fields keep their defaults.
	if cfg.Cache.SweepKeepHistoric != config.DefaultSweepKeepHistoric {
		t.Errorf("unset field lost its default: %d", cfg.Cache.SweepKeepHistoric)
	}
	if cfg.Watchdog.IntervalSec != 60 {
		t.Errorf("watchdog interval not applied: %d", cfg.Watchdog.IntervalSec)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PLAZAD_LISTEN", "10.0.0.1:7777")
	path := writeConfig(t, "listen: \"${PLAZAD_LISTEN}\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "10.0.0.1:7777" {
		t.Errorf("env var not expanded: %s", cfg.Listen)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"zero max periods", func(c *Config) { c.Cache.MaxPeriods = 0 }},
		{"negative max results", func(c *Config) { c.Cache.MaxResults = -1 }},
		{"zero ttl", func(c *Config) { c.Cache.ResultTTLSec = 0 }},
		{"negative sweep keep", func(c *Config) { c.Cache.SweepKeepHistoric = -1 }},
		{"zero watchdog interval", func(c *Config) { c.Watchdog.IntervalSec = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidate_DisabledWatchdogSkipsInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watchdog.Disabled = true
	cfg.Watchdog.IntervalSec = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled watchdog should not require an interval: %v", err)
	}
}
