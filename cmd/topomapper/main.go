// Command topomapper is the network topology discovery binary.
//
// It loads YAML configuration from directories specified by environment
// variables (or command-line flags), discovers the configured fleet once,
// and writes the merged link list to the configured sink.
//
// Usage:
//
//	topomapper [flags] [device ...]
//
// Positional arguments restrict the run to the named devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/netfab/topomapper/pkg/topomapper/app"
	"github.com/netfab/topomapper/pkg/topomapper/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "topomapper: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Flags ────────────────────────────────────────────────────────────
	var (
		logLevel string
		logFmt   string
		workers  int

		// Config path overrides (defaults read from env).
		cfgSettings  string
		cfgInventory string
	)

	flag.StringVar(&logLevel, "log.level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&logFmt, "log.fmt", "text", "Log format: json, text")
	flag.IntVar(&workers, "discovery.workers", 0, "Concurrent devices (0 = configured value)")

	flag.StringVar(&cfgSettings, "config.settings", "", "Override TOPOMAPPER_SETTINGS_DIRECTORY_PATH")
	flag.StringVar(&cfgInventory, "config.inventory", "", "Override TOPOMAPPER_INVENTORY_DIRECTORY_PATH")

	flag.Parse()

	// ── Logger ───────────────────────────────────────────────────────────
	logger, err := buildLogger(logLevel, logFmt)
	if err != nil {
		return err
	}

	// ── Config paths ─────────────────────────────────────────────────────
	paths := config.PathsFromEnv()
	if cfgSettings != "" {
		paths.Settings = cfgSettings
	}
	if cfgInventory != "" {
		paths.Inventory = cfgInventory
	}

	// ── Run ──────────────────────────────────────────────────────────────
	application := app.New(app.Config{
		ConfigPaths: paths,
		Workers:     workers,
		Targets:     flag.Args(),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := application.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("topomapper: done", "devices", summary.Devices, "links", summary.Links)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}

	return slog.New(handler), nil
}
