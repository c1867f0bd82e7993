package models

import "fmt"

// ─────────────────────────────────────────────────────────────────────────────
// Discovery methods
// ─────────────────────────────────────────────────────────────────────────────

// Method identifies which discovery mechanism produced an observation.
type Method string

const (
	MethodLLDP    Method = "LLDP"
	MethodCDP     Method = "CDP"
	MethodCLILLDP Method = "CLI-LLDP"
	MethodCLICDP  Method = "CLI-CDP"
	MethodAPIFDB  Method = "API-FDB"
	MethodFDB     Method = "SNMP-FDB"
	MethodQBridge Method = "SNMP-QBRIDGE"
	MethodARP     Method = "SNMP-ARP"
)

// ─────────────────────────────────────────────────────────────────────────────
// Endpoint — tagged identifier union
// ─────────────────────────────────────────────────────────────────────────────

// EndpointKind tags which identifier space an Endpoint value belongs to.
// Each discovery protocol naturally produces a different kind: CDP yields
// hostnames, SNMP ARP yields interface indexes, LLDP yields free-text port
// labels, and so on. The identity resolver interprets the value according to
// its kind.
type EndpointKind int

const (
	ByIP EndpointKind = iota + 1
	ByHostname
	BySysName
	ByIfIndex
	ByPortLabel
)

// String returns the kind name used in logs.
func (k EndpointKind) String() string {
	switch k {
	case ByIP:
		return "ip"
	case ByHostname:
		return "hostname"
	case BySysName:
		return "sysname"
	case ByIfIndex:
		return "ifindex"
	case ByPortLabel:
		return "portlabel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Endpoint is one raw device or port identifier exactly as a discovery
// protocol produced it. The zero value means "not identified".
type Endpoint struct {
	Kind  EndpointKind
	Value string
}

// IsZero reports whether the endpoint carries no identifier.
func (e Endpoint) IsZero() bool { return e.Kind == 0 || e.Value == "" }

func (e Endpoint) String() string {
	if e.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s:%s", e.Kind, e.Value)
}

// IPEndpoint, HostnameEndpoint, SysNameEndpoint, IfIndexEndpoint and
// LabelEndpoint construct endpoints of each kind.
func IPEndpoint(ip string) Endpoint         { return Endpoint{Kind: ByIP, Value: ip} }
func HostnameEndpoint(name string) Endpoint { return Endpoint{Kind: ByHostname, Value: name} }
func SysNameEndpoint(name string) Endpoint  { return Endpoint{Kind: BySysName, Value: name} }
func IfIndexEndpoint(idx int64) Endpoint {
	return Endpoint{Kind: ByIfIndex, Value: fmt.Sprintf("%d", idx)}
}
func LabelEndpoint(label string) Endpoint { return Endpoint{Kind: ByPortLabel, Value: label} }

// ─────────────────────────────────────────────────────────────────────────────
// RawObservation — driver output
// ─────────────────────────────────────────────────────────────────────────────

// RawObservation is the atomic unit produced by any neighbor driver: one
// claimed adjacency between a local port and a remote port, with endpoints in
// whatever identifier space the source protocol used. Observations are
// immutable; they are consumed exactly once by the enrichment stage.
type RawObservation struct {
	LocalDevice  Endpoint
	LocalPort    Endpoint
	RemoteDevice Endpoint
	RemotePort   Endpoint

	// VLAN is attached by VLAN-aware methods (Q-Bridge FDB, CLI LLDP).
	VLAN *int

	Method Method
}
