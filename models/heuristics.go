package models

import "strings"

// Textual heuristics shared by the SNMP and CLI neighbor drivers. Both are
// best-effort policies over identifier text, not protocol semantics; they
// have known edge cases (hostnames legitimately containing dots, short hex
// port names) and are kept here so every driver applies the same rules.

// maxReadablePortID is the length beyond which a port identifier is assumed
// to be a machine token rather than an interface name.
const maxReadablePortID = 30

// PreferredPortID picks between an LLDP/CDP remote port identifier and the
// accompanying port description. The raw identifier wins unless it is empty
// or looks non-human-readable (a hex/MAC blob or implausibly long) while a
// description is available.
func PreferredPortID(id, desc string) string {
	id = strings.TrimSpace(id)
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return id
	}
	if id == "" || len(id) > maxReadablePortID || isHexBlob(id) {
		return desc
	}
	return id
}

// isHexBlob reports whether s consists solely of hex digits and common MAC
// separators, i.e. carries no alphabetic interface-name content.
func isHexBlob(s string) bool {
	if s == "" {
		return false
	}
	hexish := 0
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			hexish++
		case r == ':' || r == '-' || r == '.':
			// separator
		default:
			return false
		}
	}
	return hexish >= 6
}

// StripCDPDomain truncates a CDP device identifier at the first dot that is
// not enclosed in parentheses, stripping a trailing DNS domain while
// preserving IP-shaped device IDs like "(10.0.0.1)".
func StripCDPDomain(deviceID string) string {
	deviceID = strings.TrimSpace(deviceID)
	depth := 0
	for i, r := range deviceID {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				return deviceID[:i]
			}
		}
	}
	return deviceID
}
