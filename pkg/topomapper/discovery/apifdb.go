package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netfab/topomapper/inventory"
	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Inventory forwarding-table driver
// ─────────────────────────────────────────────────────────────────────────────

// APIFDB derives adjacencies from forwarding tables the inventory system
// already holds, without touching the device. Each learned MAC on a local
// port is resolved through the fleet index to the remote port that owns the
// address; MACs the fleet does not own are skipped.
type APIFDB struct {
	source inventory.Source
	index  *inventory.Index
	logger *slog.Logger
}

// NewAPIFDB builds the driver. A nil source disables it at the orchestrator.
func NewAPIFDB(source inventory.Source, index *inventory.Index, logger *slog.Logger) *APIFDB {
	if source == nil || index == nil {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &APIFDB{source: source, index: index, logger: logger}
}

// Observations reads every port's forwarding entries for one device. A port
// whose entries cannot be fetched fails the whole step, so the orchestrator
// falls through to live SNMP tables instead of reporting a partial view as
// authoritative.
func (a *APIFDB) Observations(ctx context.Context, device models.Device) ([]models.RawObservation, error) {
	ports, err := a.source.Ports(ctx, device.ID)
	if err != nil {
		return nil, fmt.Errorf("discovery: inventory ports for device %d: %w", device.ID, err)
	}

	local := localDeviceRef(device)
	obs := []models.RawObservation{}
	for _, port := range ports {
		entries, err := a.source.ForwardingEntries(ctx, device.ID, port.PortID)
		if err != nil {
			return nil, fmt.Errorf("discovery: inventory fdb for device %d port %d: %w",
				device.ID, port.PortID, err)
		}
		for _, entry := range entries {
			ref, found := a.index.MACPort(entry.MAC)
			if !found {
				continue
			}
			obs = append(obs, models.RawObservation{
				LocalDevice:  local,
				LocalPort:    portEndpoint(port),
				RemoteDevice: localDeviceRef(ref.Device),
				RemotePort:   portEndpoint(ref.Port),
				VLAN:         entry.VLAN,
				Method:       models.MethodAPIFDB,
			})
		}
	}
	return obs, nil
}

// localDeviceRef names a device the way the resolver expects: hostname
// first, then address, then system name.
func localDeviceRef(d models.Device) models.Endpoint {
	switch {
	case d.Hostname != "":
		return models.HostnameEndpoint(d.Hostname)
	case d.IP != "":
		return models.IPEndpoint(d.IP)
	default:
		return models.SysNameEndpoint(d.SysName)
	}
}

func portEndpoint(p models.Port) models.Endpoint {
	if p.Name != "" {
		return models.LabelEndpoint(p.Name)
	}
	return models.IfIndexEndpoint(p.IfIndex)
}
