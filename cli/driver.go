package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// CLI neighbor drivers
// ─────────────────────────────────────────────────────────────────────────────

// Driver discovers neighbors by logging into devices over SSH and scraping
// the platform's neighbor detail commands. The command set is chosen by the
// device's OS family.
type Driver struct {
	dial   Dialer
	cfg    SessionConfig
	logger *slog.Logger
}

// NewDriver builds a CLI driver. A nil dial uses DialSSH.
func NewDriver(dial Dialer, cfg SessionConfig, logger *slog.Logger) *Driver {
	if dial == nil {
		dial = DialSSH
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Driver{dial: dial, cfg: cfg, logger: logger}
}

// LLDP collects LLDP neighbors from one device. A session or command failure
// returns an error; a clean run with no neighbors returns an empty non-nil
// slice.
func (d *Driver) LLDP(ctx context.Context, device models.Device, cred Credential) ([]models.RawObservation, error) {
	cs := commandsFor(device.OSFamily)
	if cs.lldp == "" {
		d.logger.Debug("cli: platform has no lldp command", "device", deviceHost(device), "os", device.OSFamily)
		return []models.RawObservation{}, nil
	}
	raw, err := d.run(ctx, device, cred, cs, cs.lldp)
	if err != nil {
		return nil, err
	}
	neighbors, diags := ParseLLDP(raw, nil)
	d.logDiags(device, "lldp", diags)
	return d.observations(device, neighbors, models.MethodCLILLDP), nil
}

// CDP collects CDP neighbors from one device, with the same failed-vs-empty
// contract as LLDP.
func (d *Driver) CDP(ctx context.Context, device models.Device, cred Credential) ([]models.RawObservation, error) {
	cs := commandsFor(device.OSFamily)
	if cs.cdp == "" {
		d.logger.Debug("cli: platform has no cdp command", "device", deviceHost(device), "os", device.OSFamily)
		return []models.RawObservation{}, nil
	}
	raw, err := d.run(ctx, device, cred, cs, cs.cdp)
	if err != nil {
		return nil, err
	}
	neighbors, diags := ParseCDP(raw)
	d.logDiags(device, "cdp", diags)
	return d.observations(device, neighbors, models.MethodCLICDP), nil
}

// run opens a session, applies the platform setup commands and executes cmd.
func (d *Driver) run(ctx context.Context, device models.Device, cred Credential, cs commandSet, cmd string) (string, error) {
	host := deviceHost(device)
	if host == "" {
		return "", fmt.Errorf("cli: device %d has no reachable address", device.ID)
	}

	sess, err := d.dial(ctx, host, cred, d.cfg)
	if err != nil {
		return "", fmt.Errorf("cli: dial %s: %w", host, err)
	}
	defer sess.Close()

	for _, setup := range cs.setup {
		if _, err := sess.Run(ctx, setup); err != nil {
			return "", fmt.Errorf("cli: setup %q on %s: %w", setup, host, err)
		}
	}
	out, err := sess.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("cli: %q on %s: %w", cmd, host, err)
	}
	return out, nil
}

func (d *Driver) observations(device models.Device, neighbors []Neighbor, method models.Method) []models.RawObservation {
	local := localEndpoint(device)
	obs := make([]models.RawObservation, 0, len(neighbors))
	for _, n := range neighbors {
		obs = append(obs, models.RawObservation{
			LocalDevice:  local,
			LocalPort:    models.LabelEndpoint(n.LocalPort),
			RemoteDevice: models.SysNameEndpoint(n.RemoteSystem),
			RemotePort:   models.LabelEndpoint(n.RemotePort),
			VLAN:         n.VLAN,
			Method:       method,
		})
	}
	return obs
}

func (d *Driver) logDiags(device models.Device, proto string, diags []string) {
	for _, diag := range diags {
		d.logger.Warn("cli: dropped neighbor block",
			"device", deviceHost(device), "proto", proto, "reason", diag)
	}
}

// noopWriter discards log output when no logger is provided.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

// deviceHost picks the address used to reach the device over SSH.
func deviceHost(device models.Device) string {
	if device.IP != "" {
		return device.IP
	}
	return device.Hostname
}

// localEndpoint names the local side the way the rest of the pipeline
// identifies devices, preferring hostname over address.
func localEndpoint(device models.Device) models.Endpoint {
	if device.Hostname != "" {
		return models.HostnameEndpoint(device.Hostname)
	}
	if device.IP != "" {
		return models.IPEndpoint(device.IP)
	}
	return models.SysNameEndpoint(device.SysName)
}
