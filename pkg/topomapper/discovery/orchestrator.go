package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/netfab/topomapper/cli"
	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// ─────────────────────────────────────────────────────────────────────────────
// Per-device discovery orchestration
// ─────────────────────────────────────────────────────────────────────────────

// SNMPNeighbors is the SNMP driver surface the orchestrator consumes. Each
// driver returns a nil slice with an error when the device could not be
// asked, and a non-nil empty slice when it answered with no entries.
type SNMPNeighbors interface {
	LLDP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error)
	CDP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error)
	BridgeFDB(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error)
	QBridgeFDB(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error)
	ARP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error)
}

// CLINeighbors is the SSH scraping surface, with the same failed-vs-empty
// contract.
type CLINeighbors interface {
	LLDP(ctx context.Context, device models.Device, cred cli.Credential) ([]models.RawObservation, error)
	CDP(ctx context.Context, device models.Device, cred cli.Credential) ([]models.RawObservation, error)
}

// Orchestrator walks one device through the method chain, most trustworthy
// first, and stops at the first method family that yields neighbors:
//
//  1. SNMP LLDP and CDP together
//  2. Inventory forwarding tables
//  3. SNMP bridge FDB
//  4. SNMP Q-Bridge FDB
//  5. CLI scrape (LLDP, then CDP)
//  6. SNMP ARP
//
// SNMP steps retry across all configured credentials; the first credential
// that gets an answer, even an empty one, settles the step.
type Orchestrator struct {
	snmp   SNMPNeighbors
	cliDrv CLINeighbors
	apiFDB *APIFDB

	snmpCreds []walker.Credential
	cliCred   cli.Credential

	logger *slog.Logger
}

// NewOrchestrator wires the drivers. Any of snmp, cliDrv, apiFDB may be nil;
// the corresponding steps are then skipped.
func NewOrchestrator(snmp SNMPNeighbors, cliDrv CLINeighbors, apiFDB *APIFDB,
	snmpCreds []walker.Credential, cliCred cli.Credential, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Orchestrator{
		snmp:      snmp,
		cliDrv:    cliDrv,
		apiFDB:    apiFDB,
		snmpCreds: snmpCreds,
		cliCred:   cliCred,
		logger:    logger,
	}
}

// step is one rung of the fallback ladder.
type step struct {
	name string
	run  func(ctx context.Context, device models.Device) ([]models.RawObservation, error)
}

func (o *Orchestrator) steps() []step {
	var steps []step
	if o.snmp != nil && len(o.snmpCreds) > 0 {
		steps = append(steps, step{"snmp-neighbors", o.snmpNeighborStep})
	}
	if o.apiFDB != nil {
		steps = append(steps, step{"inventory-fdb", o.apiFDB.Observations})
	}
	if o.snmp != nil && len(o.snmpCreds) > 0 {
		steps = append(steps,
			step{"snmp-fdb", o.snmpStep(o.snmp.BridgeFDB)},
			step{"snmp-qbridge", o.snmpStep(o.snmp.QBridgeFDB)},
		)
	}
	if o.cliDrv != nil {
		steps = append(steps, step{"cli", o.cliStep})
	}
	if o.snmp != nil && len(o.snmpCreds) > 0 {
		steps = append(steps, step{"snmp-arp", o.snmpStep(o.snmp.ARP)})
	}
	return steps
}

// Discover runs the fallback chain for one device. It returns the winning
// step's observations and name; a device that answered at least one step
// with no entries returns an empty slice and "". Step failures are logged
// and absorbed while later steps remain, so one unreachable protocol never
// hides a later one that works; a device where every step failed returns
// the joined step errors.
func (o *Orchestrator) Discover(ctx context.Context, device models.Device) ([]models.RawObservation, string, error) {
	target := snmpTarget(device)
	var stepErrs []error
	answered := false

	for _, s := range o.steps() {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		obs, err := s.run(ctx, device)
		if err != nil {
			stepErrs = append(stepErrs, fmt.Errorf("%s: %w", s.name, err))
			o.logger.Debug("discovery: step failed",
				"device", target, "step", s.name, "error", err.Error())
			continue
		}
		answered = true
		if len(obs) > 0 {
			o.logger.Info("discovery: step yielded neighbors",
				"device", target, "step", s.name, "observations", len(obs))
			return obs, s.name, nil
		}
		o.logger.Debug("discovery: step empty", "device", target, "step", s.name)
	}

	if !answered && len(stepErrs) > 0 {
		return nil, "", fmt.Errorf("discovery: every step failed: %w", errors.Join(stepErrs...))
	}
	return []models.RawObservation{}, "", nil
}

// snmpNeighborStep runs LLDP and CDP concurrently and combines them,
// deduplicating entries both protocols reported for the same ports. The step
// fails only when both protocols fail.
func (o *Orchestrator) snmpNeighborStep(ctx context.Context, device models.Device) ([]models.RawObservation, error) {
	var lldp, cdp []models.RawObservation
	var lldpErr, cdpErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lldp, lldpErr = o.withCreds(gctx, device, o.snmp.LLDP)
		return nil
	})
	g.Go(func() error {
		cdp, cdpErr = o.withCreds(gctx, device, o.snmp.CDP)
		return nil
	})
	g.Wait()

	if lldpErr != nil && cdpErr != nil {
		return nil, fmt.Errorf("discovery: lldp and cdp both failed: %w", errors.Join(lldpErr, cdpErr))
	}

	combined := make([]models.RawObservation, 0, len(lldp)+len(cdp))
	seen := make(map[string]struct{}, len(lldp)+len(cdp))
	for _, obs := range [][]models.RawObservation{lldp, cdp} {
		for _, ob := range obs {
			key := obsKey(ob)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			combined = append(combined, ob)
		}
	}
	return combined, nil
}

// snmpStep lifts a single SNMP driver into a fallback step with credential
// retry.
func (o *Orchestrator) snmpStep(fn func(context.Context, string, walker.Credential) ([]models.RawObservation, error)) func(context.Context, models.Device) ([]models.RawObservation, error) {
	return func(ctx context.Context, device models.Device) ([]models.RawObservation, error) {
		return o.withCreds(ctx, device, fn)
	}
}

// cliStep scrapes LLDP over SSH and falls back to CDP only when LLDP ran
// cleanly but saw nothing.
func (o *Orchestrator) cliStep(ctx context.Context, device models.Device) ([]models.RawObservation, error) {
	obs, err := o.cliDrv.LLDP(ctx, device, o.cliCred)
	if err != nil {
		return nil, err
	}
	if len(obs) > 0 {
		return obs, nil
	}
	return o.cliDrv.CDP(ctx, device, o.cliCred)
}

// withCreds tries each configured SNMP credential in order and settles on
// the first that gets any answer. All-failed returns the joined errors.
func (o *Orchestrator) withCreds(ctx context.Context, device models.Device,
	fn func(context.Context, string, walker.Credential) ([]models.RawObservation, error)) ([]models.RawObservation, error) {

	target := snmpTarget(device)
	if target == "" {
		return nil, fmt.Errorf("discovery: device %d has no address", device.ID)
	}

	var errs []error
	for _, cred := range o.snmpCreds {
		obs, err := fn(ctx, target, cred)
		if err == nil {
			return obs, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", cred.Label(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

// obsKey identifies an observation for unordered in-step dedup, so the same
// adjacency seen from both directions by LLDP and CDP collapses.
func obsKey(o models.RawObservation) string {
	a := o.LocalDevice.String() + "/" + o.LocalPort.String()
	b := o.RemoteDevice.String() + "/" + o.RemotePort.String()
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func snmpTarget(device models.Device) string {
	if device.IP != "" {
		return device.IP
	}
	return device.Hostname
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
