// Package app wires the topology mapper pipeline together for one run.
//
// Pipeline:
//
//	inventory → index → discovery (per device, fallback chain) →
//	resolve → merge → formatter → transport
//
// A run is a batch: it discovers the fleet once, emits the merged links and
// returns. Scheduling repeat runs is the operator's concern.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/netfab/topomapper/cli"
	jsonformat "github.com/netfab/topomapper/format/json"
	textformat "github.com/netfab/topomapper/format/text"
	"github.com/netfab/topomapper/inventory"
	"github.com/netfab/topomapper/merge"
	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/pkg/topomapper/config"
	"github.com/netfab/topomapper/pkg/topomapper/discovery"
	"github.com/netfab/topomapper/resolve"
	"github.com/netfab/topomapper/snmp/neighbors"
	"github.com/netfab/topomapper/snmp/walker"
	filetransport "github.com/netfab/topomapper/transport/file"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the top-level settings for one mapper run. Zero-value fields
// fall back to documented defaults.
type Config struct {
	// ConfigPaths are the directories for YAML configuration files.
	// Use config.PathsFromEnv() to populate from environment variables.
	ConfigPaths config.Paths

	// Workers overrides the configured device concurrency when > 0.
	Workers int

	// Targets overrides the configured device subset when non-empty.
	Targets []string

	// OutputWriter overrides the configured output destination when
	// non-nil. Used by tests.
	OutputWriter io.Writer
}

// Formatter is the serialisation contract both output formats satisfy.
type Formatter interface {
	Format(link models.Link) ([]byte, error)
}

// Summary reports what one run did.
type Summary struct {
	Devices   int
	Links     int
	Discovery discovery.RunStats
	Resolve   resolve.Stats
	Merge     merge.Stats
}

// ─────────────────────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────────────────────

// App owns the wiring for one run. Create one with New, execute it with Run.
type App struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs an App. It does not touch the network; Run does.
func New(cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &App{cfg: cfg, logger: logger}
}

// Run executes one discovery pass end to end. A fleet that cannot be loaded
// is an error; an empty fleet is a clean empty result, reported explicitly
// so consumers never mistake "nothing managed" for "nothing connected".
func (a *App) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	// ── 1. Settings ─────────────────────────────────────────────────────
	settings, err := config.Load(a.cfg.ConfigPaths, a.logger)
	if err != nil {
		return summary, fmt.Errorf("app: load settings: %w", err)
	}
	if a.cfg.Workers > 0 {
		settings.Workers = a.cfg.Workers
	}
	if len(a.cfg.Targets) > 0 {
		settings.Targets = a.cfg.Targets
	}

	// ── 2. Inventory ────────────────────────────────────────────────────
	// An unreachable inventory still produces the explicit empty result so
	// downstream consumers of the sink see "no links" rather than a missing
	// run; the error is reported alongside.
	source, err := inventory.LoadFileSource(a.cfg.ConfigPaths.Inventory, a.logger)
	if err != nil {
		_ = a.emit(nil, *settings)
		return summary, fmt.Errorf("app: load inventory: %w", err)
	}
	devices, err := source.Devices(ctx)
	if err != nil {
		_ = a.emit(nil, *settings)
		return summary, fmt.Errorf("app: list devices: %w", err)
	}
	devices = filterTargets(devices, settings.Targets)
	summary.Devices = len(devices)
	if len(devices) == 0 {
		a.logger.Warn("app: inventory empty, emitting no links")
		return summary, a.emit(nil, *settings)
	}

	canon := func(d models.Device) string { return resolve.CanonicalID(d, "") }
	index, err := inventory.Build(ctx, source, devices, canon, a.logger)
	if err != nil {
		return summary, fmt.Errorf("app: build index: %w", err)
	}
	a.logger.Info("app: inventory loaded", "devices", len(devices), "macs", index.MACCount())

	// ── 3. Drivers ──────────────────────────────────────────────────────
	pool := walker.NewConnectionPool(walker.PoolOptions{
		Session: settings.SessionOptions(),
	}, a.logger)
	defer pool.Close()

	snmpDrivers := neighbors.New(walker.NewClient(pool, a.logger), index, a.logger)

	cliCred, err := settings.CLICredential()
	if err != nil {
		return summary, err
	}
	var cliDrivers discovery.CLINeighbors
	if cliCred.Username != "" {
		cliDrivers = cli.NewDriver(nil, settings.CLISessionConfig(), a.logger)
	}

	orch := discovery.NewOrchestrator(
		snmpDrivers,
		cliDrivers,
		discovery.NewAPIFDB(source, index, a.logger),
		settings.SNMPCredentials(),
		cliCred,
		a.logger,
	)

	// ── 4. Discover, resolve, merge ─────────────────────────────────────
	obs, runStats := discovery.Discover(ctx, orch, devices, settings.Workers, a.logger)
	summary.Discovery = runStats

	catalog := resolve.NewCatalog(devices)
	conns, resolveStats := resolve.Enrich(obs, catalog, index, a.logger)
	summary.Resolve = resolveStats

	links, mergeStats := merge.Merge(conns, a.logger)
	summary.Merge = mergeStats
	summary.Links = len(links)

	// ── 5. Emit ─────────────────────────────────────────────────────────
	if err := a.emit(links, *settings); err != nil {
		return summary, err
	}

	a.logger.Info("app: run complete",
		"devices", summary.Devices,
		"answered", runStats.Answered,
		"silent", runStats.Silent,
		"failed", runStats.Failed,
		"observations", runStats.Observations,
		"links", summary.Links,
	)
	return summary, ctx.Err()
}

// emit formats every link and writes it to the configured sink.
func (a *App) emit(links []models.Link, settings config.Settings) error {
	w := a.cfg.OutputWriter
	if w == nil && settings.Output.Path != "" && settings.Output.Path != "-" {
		f, err := os.Create(settings.Output.Path)
		if err != nil {
			return fmt.Errorf("app: open output %q: %w", settings.Output.Path, err)
		}
		defer f.Close()
		w = f
	}

	var formatter Formatter
	switch settings.Output.Format {
	case "json":
		formatter = jsonformat.New(jsonformat.Config{}, a.logger)
	default:
		formatter = textformat.New()
	}

	transport := filetransport.New(filetransport.Config{Writer: w}, a.logger)
	defer transport.Close()

	for _, link := range links {
		data, err := formatter.Format(link)
		if err != nil {
			return err
		}
		if err := transport.Send(data); err != nil {
			return err
		}
	}
	return nil
}

// filterTargets restricts the fleet to the named devices. Names match
// hostname, address, system name or purpose, case-insensitively.
func filterTargets(devices []models.Device, targets []string) []models.Device {
	if len(targets) == 0 {
		return devices
	}
	want := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		want[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	var out []models.Device
	for _, d := range devices {
		for _, key := range []string{d.Hostname, d.IP, d.SysName, d.Purpose} {
			if _, ok := want[strings.ToLower(key)]; ok && key != "" {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
