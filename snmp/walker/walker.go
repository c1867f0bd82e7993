package walker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Row — one lock-step result across the walked columns
// ─────────────────────────────────────────────────────────────────────────────

// Row is a single table row produced by a walk: the OID suffix shared by all
// walked columns, plus one PDU per requested base OID (in request order).
type Row struct {
	// Suffix is the index portion of the row's OID relative to the base,
	// e.g. "0.4.1" for an LLDP remote entry or "10.0.30.12.171.205" for a
	// Q-Bridge FDB entry.
	Suffix string

	// Values holds one varbind per walked base OID.
	Values []gosnmp.SnmpPDU
}

// Value returns the i-th column varbind (zero value when out of range).
func (r Row) Value(i int) gosnmp.SnmpPDU {
	if i < 0 || i >= len(r.Values) {
		return gosnmp.SnmpPDU{}
	}
	return r.Values[i]
}

// GetNexter is the subset of *gosnmp.GoSNMP the walk loop needs. Tests
// substitute a simulated responder.
type GetNexter interface {
	GetNext(oids []string) (*gosnmp.SnmpPacket, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Client — pooled walk execution
// ─────────────────────────────────────────────────────────────────────────────

// Client executes table walks against targets using pooled sessions. A nil
// return error with an empty row slice means "table supported, no entries";
// a non-nil error means the target could not be asked — callers must treat
// the two differently.
type Client struct {
	pool   *ConnectionPool
	logger *slog.Logger
}

// NewClient constructs a Client on top of pool.
func NewClient(pool *ConnectionPool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Client{pool: pool, logger: logger}
}

// Walk iterates a single column under base on target.
func (c *Client) Walk(ctx context.Context, target string, cred Credential, base string) ([]Row, error) {
	return c.WalkColumns(ctx, target, cred, []string{base})
}

// WalkColumns iterates the given base OIDs in lock-step on target, acquiring
// a session from the pool and returning it for reuse on success. A broken
// session (transport or protocol error) is discarded.
func (c *Client) WalkColumns(ctx context.Context, target string, cred Credential, bases []string) ([]Row, error) {
	conn, err := c.pool.Get(ctx, target, cred)
	if err != nil {
		return nil, fmt.Errorf("walker: session %s: %w", target, err)
	}

	rows, err := WalkSession(ctx, conn, bases, c.logger.With("target", target))
	if err != nil {
		c.pool.Discard(target, cred, conn)
		return nil, err
	}
	c.pool.Put(target, cred, conn)
	return rows, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Walk loop
// ─────────────────────────────────────────────────────────────────────────────

// WalkSession performs a GETNEXT walk over bases on an existing session. It
// terminates when (a) any returned OID no longer shares its requested base
// prefix, (b) the returned values are end-of-table / no-such-object
// sentinels, or (c) a transport or protocol error occurs. Rows whose column
// suffixes disagree are dropped with a warning, not fatal.
//
// The returned slice is non-nil whenever err is nil, so callers can
// distinguish "no entries" from "could not ask".
func WalkSession(ctx context.Context, sess GetNexter, bases []string, logger *slog.Logger) ([]Row, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("walker: no base OIDs")
	}

	norm := make([]string, len(bases))
	for i, b := range bases {
		norm[i] = normalizeOID(b)
		if norm[i] == "" {
			return nil, fmt.Errorf("walker: empty base OID at position %d", i)
		}
	}

	rows := make([]Row, 0, 16)
	cursor := append([]string(nil), norm...)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pkt, err := sess.GetNext(cursor)
		if err != nil {
			return nil, fmt.Errorf("walker: getnext: %w", err)
		}
		if pkt.Error == gosnmp.NoSuchName {
			// SNMPv1 end-of-MIB signal.
			return rows, nil
		}
		if pkt.Error != gosnmp.NoError {
			return nil, fmt.Errorf("walker: agent returned %v at index %d", pkt.Error, pkt.ErrorIndex)
		}
		if len(pkt.Variables) != len(cursor) {
			return nil, fmt.Errorf("walker: got %d varbinds for %d requested OIDs", len(pkt.Variables), len(cursor))
		}

		next := make([]string, len(cursor))
		suffixes := make([]string, len(cursor))
		done := false
		for i, v := range pkt.Variables {
			name := normalizeOID(v.Name)
			if isEndOfTable(v.Type) || !oidHasPrefix(name, norm[i]) {
				done = true
				break
			}
			// A non-increasing OID means a broken agent; stop rather than loop.
			if compareOIDs(name, normalizeOID(cursor[i])) <= 0 {
				logger.Warn("walker: non-increasing OID, terminating walk",
					"base", norm[i], "oid", name)
				done = true
				break
			}
			next[i] = name
			suffixes[i] = strings.TrimPrefix(name, norm[i]+".")
		}
		if done {
			return rows, nil
		}

		if sameSuffixes(suffixes) {
			rows = append(rows, Row{Suffix: suffixes[0], Values: pkt.Variables})
		} else {
			logger.Warn("walker: mismatched row suffixes, dropping row",
				"suffixes", strings.Join(suffixes, ","))
		}
		cursor = next
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// OID helpers
// ─────────────────────────────────────────────────────────────────────────────

// normalizeOID strips a leading dot and whitespace. All OIDs inside this
// package are stored and compared in the no-leading-dot form.
func normalizeOID(oid string) string {
	return strings.TrimPrefix(strings.TrimSpace(oid), ".")
}

func oidHasPrefix(oid, base string) bool {
	return strings.HasPrefix(oid, base+".")
}

// compareOIDs orders two dotted OIDs component-wise numerically.
func compareOIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, _ := strconv.ParseUint(as[i], 10, 64)
		bi, _ := strconv.ParseUint(bs[i], 10, 64)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func sameSuffixes(suffixes []string) bool {
	for _, s := range suffixes[1:] {
		if s != suffixes[0] {
			return false
		}
	}
	return true
}

func isEndOfTable(t gosnmp.Asn1BER) bool {
	switch t {
	case gosnmp.EndOfMibView, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfContents:
		return true
	default:
		return false
	}
}

// SuffixInts parses a dotted OID suffix into its numeric components. The
// second return is false when any component is not a number.
func SuffixInts(suffix string) ([]int64, bool) {
	if suffix == "" {
		return nil, false
	}
	parts := strings.Split(suffix, ".")
	out := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
