// Package models defines the core data structures shared across all layers of
// the topology mapper. These types represent the canonical in-memory form of
// all discovered data; every other package depends on this package and nothing
// here depends on any other internal package.
package models

import "strings"

// Device is a read-only snapshot of one managed device as reported by the
// inventory source. No single identity field is guaranteed unique or present;
// downstream code derives a canonical identifier instead of using raw fields.
type Device struct {
	// ID is the numeric inventory identifier.
	ID int64 `json:"id" yaml:"id"`

	// IP is the management IP address, when known.
	IP string `json:"ip,omitempty" yaml:"ip"`

	// Hostname is the inventory hostname, when known.
	Hostname string `json:"hostname,omitempty" yaml:"hostname"`

	// SysName is the SNMP sysName, when known.
	SysName string `json:"sys_name,omitempty" yaml:"sys_name"`

	// Purpose is the operator-assigned free-text label. When non-empty it is
	// the preferred canonical identifier.
	Purpose string `json:"purpose,omitempty" yaml:"purpose"`

	// OSFamily names the operating system family (e.g. "ios", "nxos",
	// "junos"). It selects the CLI command set for the device.
	OSFamily string `json:"os_family,omitempty" yaml:"os_family"`
}

// PortStatus is the administrative or operational status of a port.
type PortStatus string

const (
	StatusUp             PortStatus = "up"
	StatusDown           PortStatus = "down"
	StatusTesting        PortStatus = "testing"
	StatusLowerLayerDown PortStatus = "lowerLayerDown"
	StatusNotPresent     PortStatus = "notPresent"
	StatusUnknown        PortStatus = "unknown"
)

// Port belongs to exactly one Device. Name/Descr/Alias are all legitimate
// labels for the same physical port and are indexed together by the fleet
// index.
type Port struct {
	// DeviceID is the numeric inventory ID of the owning device.
	DeviceID int64 `json:"device_id" yaml:"device_id"`

	// PortID is the numeric inventory ID of the port itself.
	PortID int64 `json:"port_id" yaml:"port_id"`

	// IfIndex is the SNMP interface index on the owning device.
	IfIndex int64 `json:"ifindex" yaml:"ifindex"`

	// Name is the short interface name (ifName), e.g. "Gi0/1".
	Name string `json:"name,omitempty" yaml:"name"`

	// Descr is the interface description (ifDescr).
	Descr string `json:"descr,omitempty" yaml:"descr"`

	// Alias is the operator-assigned alias (ifAlias).
	Alias string `json:"alias,omitempty" yaml:"alias"`

	// MAC is the hardware address as 12 lowercase hex characters, or empty
	// when the port has none. Unique fleet-wide when present; violations are
	// logged and resolved first-write-wins by the index.
	MAC string `json:"mac,omitempty" yaml:"mac"`

	AdminStatus PortStatus `json:"admin_status,omitempty" yaml:"admin_status"`
	OperStatus  PortStatus `json:"oper_status,omitempty" yaml:"oper_status"`

	// Media is the interface media type, e.g. "ethernetCsmacd".
	Media string `json:"media,omitempty" yaml:"media"`
}

// ForwardingEntry is one learned MAC on a port, as reported by the inventory
// source's forwarding-table API.
type ForwardingEntry struct {
	// MAC is the learned hardware address, 12 lowercase hex characters.
	MAC string `json:"mac" yaml:"mac"`

	// VLAN is the VLAN the address was learned in, when known.
	VLAN *int `json:"vlan,omitempty" yaml:"vlan"`
}

// NormalizeMAC reduces any common MAC notation (colon, dash, dot separated,
// or raw hex) to 12 lowercase hex characters. It returns "" when the input
// does not contain exactly 12 hex digits.
func NormalizeMAC(s string) string {
	var b strings.Builder
	b.Grow(12)
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			b.WriteRune(r)
		case r == ':' || r == '-' || r == '.' || r == ' ':
			// separator
		default:
			return ""
		}
	}
	if b.Len() != 12 {
		return ""
	}
	return b.String()
}
