// Package neighbors implements the five SNMP neighbor-table drivers built on
// the walker: LLDP, CDP, Bridge-MIB FDB, Q-Bridge FDB, and ARP. Every driver
// is a pure function over (target, credential): it returns a nil slice with
// an error when the target could not be asked, and a non-nil (possibly
// empty) slice when the protocol answered — orchestration treats the two
// differently.
package neighbors

// LLDP-MIB remote and local port tables.
const (
	// lldpRemTable, indexed by (timeMark, localPortNum, index).
	oidLLDPRemSysName  = "1.0.8802.1.1.2.1.4.1.1.9"
	oidLLDPRemPortID   = "1.0.8802.1.1.2.1.4.1.1.7"
	oidLLDPRemPortDesc = "1.0.8802.1.1.2.1.4.1.1.8"

	// lldpLocPortTable, indexed by localPortNum.
	oidLLDPLocPortIDSubtype = "1.0.8802.1.1.2.1.3.7.1.2"
	oidLLDPLocPortID        = "1.0.8802.1.1.2.1.3.7.1.3"
)

// LLDP port-id subtypes (LldpPortIdSubtype).
const (
	lldpPortIDSubtypeIfName = 5
	lldpPortIDSubtypeLocal  = 7
)

// CISCO-CDP-MIB cache table, indexed by (cdpCacheIfIndex, cdpCacheDeviceIndex).
const (
	oidCDPCacheDeviceID   = "1.3.6.1.4.1.9.9.23.1.2.1.1.6"
	oidCDPCacheDevicePort = "1.3.6.1.4.1.9.9.23.1.2.1.1.7"
)

// BRIDGE-MIB forwarding database.
const (
	// dot1dTpFdbPort: index is the 6-octet MAC, value is the base bridge port.
	oidDot1dTpFdbPort = "1.3.6.1.2.1.17.4.3.1.2"

	// dot1dBasePortIfIndex: base bridge port → ifIndex.
	oidDot1dBasePortIfIndex = "1.3.6.1.2.1.17.1.4.1.2"
)

// Q-BRIDGE-MIB (VLAN-aware) forwarding database.
const (
	// dot1qTpFdbPort: index is (vlan, 6-octet MAC), value is the base bridge port.
	oidDot1qTpFdbPort = "1.3.6.1.2.1.17.7.1.2.2.1.2"
)

// RFC1213 / IP-MIB ARP cache.
const (
	// ipNetToMediaPhysAddress: index is (ifIndex, 4-octet IP), value is the MAC.
	oidIPNetToMediaPhysAddr = "1.3.6.1.2.1.4.22.1.2"
)
