package resolve

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/netfab/topomapper/inventory"
	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Observation enrichment
// ─────────────────────────────────────────────────────────────────────────────

// Stats counts what happened to a batch of observations during enrichment.
type Stats struct {
	Total      int
	Enriched   int
	Unresolved int // either device endpoint unknown to the inventory
	SelfLinks  int // both endpoints resolved to the same device
}

// Enrich resolves raw protocol identifiers into canonical connections.
// Observations whose local or remote device cannot be matched against the
// inventory are dropped, as are self-links, where a device claims an
// adjacency to itself (FDB tables routinely report a switch's own
// addresses). Port identity is best-effort: a port label that the fleet
// index knows gains its interface index and is canonicalized to the
// inventory's primary name, an interface index gains its port name, and an
// unknown label is kept opaque.
func Enrich(obs []models.RawObservation, cat *Catalog, idx *inventory.Index, logger *slog.Logger) ([]models.EnrichedConnection, Stats) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	stats := Stats{Total: len(obs)}
	conns := make([]models.EnrichedConnection, 0, len(obs))

	for _, o := range obs {
		local, localOK := resolveEnd(o.LocalDevice, o.LocalPort, cat, idx)
		remote, remoteOK := resolveEnd(o.RemoteDevice, o.RemotePort, cat, idx)
		if !localOK || !remoteOK {
			stats.Unresolved++
			logger.Debug("resolve: dropped unresolvable observation",
				"local", o.LocalDevice.String(), "remote", o.RemoteDevice.String(),
				"method", string(o.Method))
			continue
		}
		if strings.EqualFold(local.Device, remote.Device) {
			stats.SelfLinks++
			logger.Debug("resolve: dropped self-link",
				"device", local.Device, "method", string(o.Method))
			continue
		}
		conns = append(conns, models.EnrichedConnection{
			Local:  local,
			Remote: remote,
			VLAN:   o.VLAN,
			Method: o.Method,
		})
	}
	stats.Enriched = len(conns)
	return conns, stats
}

// resolveEnd turns one (device, port) endpoint pair into a ConnectionEnd.
// It fails only when the device cannot be identified; ports degrade to
// opaque labels or stay empty.
func resolveEnd(device, port models.Endpoint, cat *Catalog, idx *inventory.Index) (models.ConnectionEnd, bool) {
	d, ok := cat.Find(device)
	if !ok {
		return models.ConnectionEnd{}, false
	}
	canon := CanonicalID(d, device.Value)
	if canon == "" {
		return models.ConnectionEnd{}, false
	}

	end := models.ConnectionEnd{Device: canon}
	switch port.Kind {
	case models.ByIfIndex:
		if n, err := strconv.ParseInt(port.Value, 10, 64); err == nil && n > 0 {
			end.IfIndex = n
			if idx != nil {
				if name, found := idx.PortName(canon, n); found {
					end.PortName = name
				}
			}
		}
	case models.ByPortLabel:
		end.PortName = port.Value
		if idx != nil {
			if n, found := idx.IfIndex(canon, port.Value); found {
				end.IfIndex = n
				// Canonicalize to the inventory's primary label so the
				// same physical port dedups across alias and index forms.
				if name, found := idx.PortName(canon, n); found {
					end.PortName = name
				}
			}
		}
	}
	return end, true
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
