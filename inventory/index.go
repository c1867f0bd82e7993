package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fleet index
// ─────────────────────────────────────────────────────────────────────────────

// PortRef names one port on one device.
type PortRef struct {
	Device models.Device
	Port   models.Port
}

// Index is the fleet-wide lookup structure built once per run:
//
//   - MAC → (device, port), first-write-wins; duplicate MACs are a
//     data-integrity anomaly, logged and skipped.
//   - (canonical device, lowercased port label) → ifIndex, populated for
//     every of ifName / ifAlias / ifDescr per port.
//   - (canonical device, ifIndex) → port name, the reverse direction, so an
//     endpoint known only by interface index resolves to the same label the
//     name-based protocols report.
//
// Build returns the fully populated value; it is never mutated afterwards
// and is safe for concurrent reads.
type Index struct {
	macs      map[string]PortRef
	ifIndexes map[string]int64  // "canonicaldevice|label" → ifIndex
	portNames map[string]string // "canonicaldevice|ifIndex" → port name
}

// Build iterates every device's ports from src and populates the index.
// canon derives the canonical device identifier the label keys use; it must
// match the identifier the resolver produces for the same device. Per-device
// port fetch failures are logged and skipped, never fatal.
func Build(ctx context.Context, src Source, devices []models.Device, canon func(models.Device) string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if canon == nil {
		return nil, fmt.Errorf("inventory: nil canonical identifier func")
	}

	idx := &Index{
		macs:      make(map[string]PortRef),
		ifIndexes: make(map[string]int64),
		portNames: make(map[string]string),
	}

	for _, dev := range devices {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ports, err := src.Ports(ctx, dev.ID)
		if err != nil {
			logger.Warn("index: port fetch failed, skipping device",
				"device_id", dev.ID, "error", err.Error())
			continue
		}

		canonID := canon(dev)
		for _, port := range ports {
			idx.addPort(dev, canonID, port, logger)
		}
	}

	logger.Info("index: built",
		"devices", len(devices),
		"macs", len(idx.macs),
		"port_labels", len(idx.ifIndexes),
	)
	return idx, nil
}

func (x *Index) addPort(dev models.Device, canonID string, port models.Port, logger *slog.Logger) {
	if mac := models.NormalizeMAC(port.MAC); mac != "" {
		if prev, dup := x.macs[mac]; dup {
			logger.Warn("index: duplicate port MAC, keeping first",
				"mac", mac,
				"kept_device", prev.Device.ID,
				"dropped_device", dev.ID,
			)
		} else {
			x.macs[mac] = PortRef{Device: dev, Port: port}
		}
	}

	if canonID == "" {
		return
	}
	for _, label := range []string{port.Name, port.Alias, port.Descr} {
		if label == "" {
			continue
		}
		x.ifIndexes[labelKey(canonID, label)] = port.IfIndex
	}
	if port.IfIndex > 0 {
		for _, name := range []string{port.Name, port.Alias, port.Descr} {
			if name != "" {
				x.portNames[ifIndexKey(canonID, port.IfIndex)] = name
				break
			}
		}
	}
}

// MACPort looks up the port that owns a hardware address. mac may be in any
// common notation.
func (x *Index) MACPort(mac string) (PortRef, bool) {
	ref, ok := x.macs[models.NormalizeMAC(mac)]
	return ref, ok
}

// IfIndex resolves a port label (ifName, ifAlias, or ifDescr, any case) on a
// canonical device to its interface index.
func (x *Index) IfIndex(canonDevice, label string) (int64, bool) {
	idx, ok := x.ifIndexes[labelKey(canonDevice, label)]
	return idx, ok
}

// PortName resolves an interface index on a canonical device back to the
// port's primary label.
func (x *Index) PortName(canonDevice string, ifIndex int64) (string, bool) {
	name, ok := x.portNames[ifIndexKey(canonDevice, ifIndex)]
	return name, ok
}

// MACCount reports how many unique hardware addresses are indexed.
func (x *Index) MACCount() int { return len(x.macs) }

func labelKey(canonDevice, label string) string {
	return strings.ToLower(canonDevice) + "|" + strings.ToLower(label)
}

func ifIndexKey(canonDevice string, ifIndex int64) string {
	return strings.ToLower(canonDevice) + "|" + strconv.FormatInt(ifIndex, 10)
}
