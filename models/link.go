package models

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Enriched connections and final links
// ─────────────────────────────────────────────────────────────────────────────

// ConnectionEnd is one endpoint of an enriched connection: the canonical
// device identifier plus whatever port identity could be resolved. IfIndex 0
// means "not resolved"; PortName may then still carry an opaque label that
// consumers can match by name.
type ConnectionEnd struct {
	Device   string `json:"device"`
	PortName string `json:"port,omitempty"`
	IfIndex  int64  `json:"ifindex,omitempty"`
}

// PortLabel returns the best available port identifier for display and
// dedup keying: the name when present, otherwise the interface index.
func (e ConnectionEnd) PortLabel() string {
	if e.PortName != "" {
		return e.PortName
	}
	if e.IfIndex > 0 {
		return fmt.Sprintf("ifIndex%d", e.IfIndex)
	}
	return ""
}

// Key returns the "device:port" half of a dedup key, lowercased on the
// device so identifier case differences between data sources collapse.
func (e ConnectionEnd) Key() string {
	return strings.ToLower(e.Device) + ":" + e.PortLabel()
}

// EnrichedConnection is a RawObservation after identity resolution: both
// endpoints carry canonical device identifiers. Self-links and connections
// missing either canonical device never reach this type.
type EnrichedConnection struct {
	Local  ConnectionEnd
	Remote ConnectionEnd
	VLAN   *int
	Method Method
}

// Link is the final output unit: an unordered pair of endpoints plus the
// winning discovery method. At most one Link exists per unordered endpoint
// pair in a run's output. Links are never mutated after emission.
type Link struct {
	Local  ConnectionEnd `json:"local"`
	Remote ConnectionEnd `json:"remote"`
	VLAN   *int          `json:"vlan,omitempty"`
	Method Method        `json:"method"`
}

// String renders the line-oriented text form:
//
//	edge1:Gi0/1 <-> core-sw:Gi0/24 (VLAN 10) via CDP
func (l Link) String() string {
	var b strings.Builder
	b.WriteString(l.Local.Device)
	b.WriteByte(':')
	b.WriteString(l.Local.PortLabel())
	b.WriteString(" <-> ")
	b.WriteString(l.Remote.Device)
	b.WriteByte(':')
	b.WriteString(l.Remote.PortLabel())
	if l.VLAN != nil {
		fmt.Fprintf(&b, " (VLAN %d)", *l.VLAN)
	}
	b.WriteString(" via ")
	b.WriteString(string(l.Method))
	return b.String()
}
