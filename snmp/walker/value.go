package walker

import (
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value coercion
// ─────────────────────────────────────────────────────────────────────────────

// ToString converts a PDU value to a trimmed string. OctetStrings arrive from
// gosnmp as []byte; anything else is formatted with %v as a fallback.
func ToString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case string:
		return strings.TrimRight(strings.TrimSpace(v), "\x00")
	case []byte:
		return strings.TrimRight(strings.TrimSpace(string(v)), "\x00")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt64 converts any integral PDU value to int64, returning 0 for
// non-numeric values.
func ToInt64(pdu gosnmp.SnmpPDU) int64 {
	switch pdu.Value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return gosnmp.ToBigInt(pdu.Value).Int64()
	default:
		return 0
	}
}

// ToMAC converts a 6-octet hardware address PDU value to 12 lowercase hex
// characters. It returns "" when the value is not a 6-byte octet string.
func ToMAC(pdu gosnmp.SnmpPDU) string {
	b, ok := pdu.Value.([]byte)
	if !ok {
		if s, sok := pdu.Value.(string); sok {
			b = []byte(s)
		} else {
			return ""
		}
	}
	if len(b) != 6 {
		return ""
	}
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x", b[0], b[1], b[2], b[3], b[4], b[5])
}

// MACFromSuffixInts renders 6 numeric OID index components as 12 lowercase
// hex characters. Q-Bridge and Bridge-MIB FDB tables encode the learned MAC
// this way in the row index.
func MACFromSuffixInts(parts []int64) string {
	if len(parts) != 6 {
		return ""
	}
	for _, p := range parts {
		if p < 0 || p > 255 {
			return ""
		}
	}
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x",
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5])
}
