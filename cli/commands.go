package cli

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// Per-platform command tables
// ─────────────────────────────────────────────────────────────────────────────

// commandSet holds the neighbor commands for one OS family. An empty command
// means the protocol has no CLI equivalent on that platform.
type commandSet struct {
	// setup runs once after login, e.g. to disable paging.
	setup []string

	lldp string
	cdp  string
}

// commandSets keys OS families (lowercased) to their neighbor commands.
// Families not listed fall back to the Cisco-like default.
var commandSets = map[string]commandSet{
	"ios": {
		setup: []string{"terminal length 0"},
		lldp:  "show lldp neighbors detail",
		cdp:   "show cdp neighbors detail",
	},
	"nxos": {
		setup: []string{"terminal length 0"},
		lldp:  "show lldp neighbors detail",
		cdp:   "show cdp neighbors detail",
	},
	"procurve": {
		setup: []string{"no page"},
		lldp:  "show lldp info remote-device detail",
		cdp:   "", // CDP-compatible advertisements only; no detail command
	},
	"junos": {
		setup: []string{"set cli screen-length 0"},
		lldp:  "show lldp neighbors detail",
		cdp:   "",
	},
}

// defaultFamily is applied when a device's OS family is unknown.
const defaultFamily = "ios"

// commandsFor resolves a device OS family to its command set.
func commandsFor(osFamily string) commandSet {
	if cs, ok := commandSets[strings.ToLower(osFamily)]; ok {
		return cs
	}
	return commandSets[defaultFamily]
}
