package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pure text parsing — no transport involved
// ─────────────────────────────────────────────────────────────────────────────

// Neighbor is one parsed CLI neighbor entry, still in raw textual identity.
type Neighbor struct {
	LocalPort    string
	RemoteSystem string
	RemotePort   string
	VLAN         *int
}

// DefaultLLDPBoundary starts a new LLDP neighbor block at each "Chassis id:"
// line, the field every platform prints first for a remote system.
var DefaultLLDPBoundary = regexp.MustCompile(`(?mi)^\s*Chassis\s*id\s*:`)

// cdpRule separates CDP detail entries with a horizontal rule.
var cdpRule = regexp.MustCompile(`(?m)^-{4,}\s*$`)

// Independent field patterns, scanned per block. Kept tolerant across IOS,
// NX-OS and ProCurve spellings.
var (
	reLocalPort  = regexp.MustCompile(`(?mi)^\s*Local\s+(?:Intf|Interface|Port)(?:\s*id)?\s*:\s*(.+)$`)
	reSysName    = regexp.MustCompile(`(?mi)^\s*Sys(?:tem)?\s*Name\s*:\s*(.+)$`)
	rePortID     = regexp.MustCompile(`(?mi)^\s*Port\s*id\s*:\s*(.+)$`)
	rePortDescr  = regexp.MustCompile(`(?mi)^\s*Port\s*Descr(?:iption)?\s*:\s*(.+)$`)
	reVlanID     = regexp.MustCompile(`(?mi)^\s*(?:Port\s+)?Vlan(?:\s*ID)?\s*:\s*(\d+)`)
	reCDPDev     = regexp.MustCompile(`(?mi)^\s*Device\s*ID\s*:\s*(.+)$`)
	reCDPIntPort = regexp.MustCompile(`(?mi)^\s*Interface\s*:\s*([^,]+),\s*Port\s*ID\s*\(outgoing\s*port\)\s*:\s*(.+)$`)
)

// SplitBlocks cuts raw command output into per-neighbor blocks at each match
// of boundary. Text before the first boundary (headers, totals) is dropped.
func SplitBlocks(raw string, boundary *regexp.Regexp) []string {
	locs := boundary.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, raw[loc[0]:end])
	}
	return blocks
}

// ParseLLDP scans LLDP detail output block by block. Blocks missing any of
// {local port, remote system, remote port} are discarded; the returned
// diagnostics describe each discard so the caller can log them. The remote
// port follows the same selection policy as the SNMP LLDP driver: raw port
// id unless it is empty, MAC-like, or implausibly long and a description
// exists.
func ParseLLDP(raw string, boundary *regexp.Regexp) ([]Neighbor, []string) {
	if boundary == nil {
		boundary = DefaultLLDPBoundary
	}

	var neighbors []Neighbor
	var diags []string

	for i, block := range SplitBlocks(raw, boundary) {
		localPort := firstMatch(reLocalPort, block)
		sysName := firstMatch(reSysName, block)
		portID := firstMatch(rePortID, block)
		portDescr := firstMatch(rePortDescr, block)

		remotePort := models.PreferredPortID(portID, portDescr)
		if localPort == "" || sysName == "" || remotePort == "" {
			diags = append(diags, fmt.Sprintf(
				"lldp block %d incomplete (local=%q system=%q port=%q)",
				i, localPort, sysName, remotePort))
			continue
		}

		n := Neighbor{
			LocalPort:    localPort,
			RemoteSystem: sysName,
			RemotePort:   remotePort,
		}
		if v := firstMatch(reVlanID, block); v != "" {
			if vlan, err := strconv.Atoi(v); err == nil {
				n.VLAN = &vlan
			}
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, diags
}

// ParseCDP scans CDP detail output. Entries are separated by a horizontal
// rule; each needs a device id plus the combined interface / outgoing-port
// line. The device id is stripped of its DNS domain with the same heuristic
// the SNMP CDP driver uses.
func ParseCDP(raw string) ([]Neighbor, []string) {
	var neighbors []Neighbor
	var diags []string

	for i, block := range splitOnRule(raw) {
		deviceID := models.StripCDPDomain(firstMatch(reCDPDev, block))
		m := reCDPIntPort.FindStringSubmatch(block)
		if deviceID == "" || m == nil {
			if strings.TrimSpace(block) == "" {
				continue
			}
			diags = append(diags, fmt.Sprintf("cdp block %d incomplete (device=%q)", i, deviceID))
			continue
		}
		neighbors = append(neighbors, Neighbor{
			LocalPort:    strings.TrimSpace(m[1]),
			RemoteSystem: deviceID,
			RemotePort:   strings.TrimSpace(m[2]),
		})
	}
	return neighbors, diags
}

func splitOnRule(raw string) []string {
	return cdpRule.Split(raw, -1)
}

func firstMatch(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
