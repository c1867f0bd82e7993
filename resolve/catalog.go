package resolve

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Device identity catalog
// ─────────────────────────────────────────────────────────────────────────────

// Catalog maps every identifier a discovery protocol may emit back to the
// inventory device that owns it. Lookups are case-insensitive; hostnames are
// additionally indexed by their short form so LLDP system names match fully
// qualified inventory entries.
type Catalog struct {
	byIP       map[string]models.Device
	byHostname map[string]models.Device
	bySysName  map[string]models.Device
	byPurpose  map[string]models.Device
	byID       map[int64]models.Device
}

// NewCatalog indexes the fleet. On identifier collisions the first device
// wins, which keeps lookups deterministic for a stable inventory order.
func NewCatalog(devices []models.Device) *Catalog {
	c := &Catalog{
		byIP:       make(map[string]models.Device),
		byHostname: make(map[string]models.Device),
		bySysName:  make(map[string]models.Device),
		byPurpose:  make(map[string]models.Device),
		byID:       make(map[int64]models.Device),
	}
	for _, d := range devices {
		putKey(c.byIP, d.IP, d)
		putKey(c.byHostname, d.Hostname, d)
		if short := shortName(d.Hostname); short != d.Hostname {
			putKey(c.byHostname, short, d)
		}
		putKey(c.bySysName, d.SysName, d)
		if short := shortName(d.SysName); short != d.SysName {
			putKey(c.bySysName, short, d)
		}
		putKey(c.byPurpose, d.Purpose, d)
		if _, dup := c.byID[d.ID]; !dup && d.ID != 0 {
			c.byID[d.ID] = d
		}
	}
	return c
}

// Find resolves an endpoint to its inventory device. The endpoint's own
// identifier space is tried first, then the remaining spaces in a fixed
// order, so a protocol that mislabels its values (a CDP device id that is
// really an address) still resolves.
func (c *Catalog) Find(e models.Endpoint) (models.Device, bool) {
	if e.IsZero() {
		return models.Device{}, false
	}
	v := strings.ToLower(strings.TrimSpace(e.Value))

	primary := map[models.EndpointKind]map[string]models.Device{
		models.ByIP:       c.byIP,
		models.ByHostname: c.byHostname,
		models.BySysName:  c.bySysName,
	}
	if m, ok := primary[e.Kind]; ok {
		if d, ok := m[v]; ok {
			return d, true
		}
	}
	for _, m := range []map[string]models.Device{c.byIP, c.byHostname, c.bySysName, c.byPurpose} {
		if d, ok := m[v]; ok {
			return d, true
		}
	}
	if short := shortName(v); short != v {
		for _, m := range []map[string]models.Device{c.byHostname, c.bySysName} {
			if d, ok := m[short]; ok {
				return d, true
			}
		}
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		if d, ok := c.byID[id]; ok {
			return d, true
		}
	}
	return models.Device{}, false
}

// CanonicalID derives the single identifier a device is known by in every
// link this run emits. requested is the raw identifier the device was looked
// up with, used only when the inventory record itself is too sparse to name
// the device. An empty result means the device cannot be named at all and
// the observation carrying it must be dropped.
func CanonicalID(d models.Device, requested string) string {
	switch {
	case d.Purpose != "":
		return d.Purpose
	case d.Hostname != "" && !ipv4Shaped(d.Hostname):
		return d.Hostname
	case d.IP != "":
		return d.IP
	case d.Hostname != "":
		return d.Hostname
	case requested != "":
		return requested
	case d.ID != 0:
		return fmt.Sprintf("device_id_%d", d.ID)
	case d.SysName != "":
		return d.SysName
	default:
		return ""
	}
}

func putKey(m map[string]models.Device, key string, d models.Device) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if _, dup := m[key]; !dup {
		m[key] = d
	}
}

// shortName truncates a DNS name at its first dot unless the whole value is
// an address.
func shortName(name string) string {
	if ipv4Shaped(name) {
		return name
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func ipv4Shaped(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}
