// plazad is the period comparison cache daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plazalytics/plazacache/internal/engine"
	"github.com/plazalytics/plazacache/internal/geo"
	"github.com/plazalytics/plazacache/internal/loader"
	"github.com/plazalytics/plazacache/internal/logging"
	"github.com/plazalytics/plazacache/internal/server"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	logJSON := flag.Bool("log-json", false, "JSON log output")
	ginMode := flag.String("gin-mode", "release", "gin mode: release or debug")
	flag.Parse()

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = loader.DefaultConfig()
		} else {
			logging.Init(logging.ParseLevel("info"), *logJSON)
			logging.Error("load config failed", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logJSON {
		cfg.LogJSON = true
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	log := logging.Component("plazad")
	log.Info("starting", "version", Version, "listen", cfg.Listen,
		"max_periods", cfg.Cache.MaxPeriods, "max_results", cfg.Cache.MaxResults)

	core := engine.New(engine.Options{
		MaxPeriods:       cfg.Cache.MaxPeriods,
		MaxResults:       cfg.Cache.MaxResults,
		AggregateWorkers: cfg.Cache.AggregateWorkers,
	})
	legacy := geo.New(cfg.Cache.AggregateWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Watchdog.Disabled {
		go watchdog(ctx, core, cfg)
	}

	srv := server.New(cfg.Listen, core, legacy, cfg.MaxBodyBytes, *ginMode, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}

	log.Info("stopped")
}

// watchdog periodically expires idle comparison results and sweeps historic
// periods. The engine only defines what a sweep does; deciding when to run it
// is this host's job.
func watchdog(ctx context.Context, core *engine.Engine, cfg *loader.Config) {
	log := logging.Component("watchdog")
	ticker := time.NewTicker(cfg.WatchdogInterval())
	defer ticker.Stop()

	log.Info("watchdog on", "interval", cfg.WatchdogInterval(), "result_ttl", cfg.ResultTTL())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := core.ExpireResults(cfg.ResultTTL()); n > 0 {
				log.Info("expired results", "removed", n)
			}

			year := cfg.Watchdog.CurrentYear
			if year == 0 {
				year = uint32(time.Now().Year())
			}
			if n := core.SweepPeriods(cfg.Cache.SweepKeepHistoric, year); n > 0 {
				log.Info("swept historic periods", "removed", n)
			}
		}
	}
}
