package merge

import (
	"log/slog"
	"sort"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Link dedup and merge
// ─────────────────────────────────────────────────────────────────────────────

// methodRank orders discovery methods by trustworthiness. Direct neighbor
// protocols outrank address-table inference; ARP is the weakest signal.
// Unknown methods sort after everything listed.
var methodRank = map[models.Method]int{
	models.MethodLLDP:    0,
	models.MethodCDP:     1,
	models.MethodCLILLDP: 2,
	models.MethodCLICDP:  3,
	models.MethodAPIFDB:  4,
	models.MethodQBridge: 5,
	models.MethodFDB:     6,
	models.MethodARP:     7,
}

func rank(m models.Method) int {
	if r, ok := methodRank[m]; ok {
		return r
	}
	return len(methodRank)
}

// Stats counts the outcomes of one merge pass.
type Stats struct {
	Total      int
	Kept       int // first sighting of an endpoint pair
	Replaced   int // better method displaced an earlier link
	Discarded  int // equal or worse duplicate of an existing link
	Incomplete int // connection missing a device on either side
}

// Merge collapses enriched connections into at most one link per unordered
// endpoint pair. A later connection for a pair already seen replaces the
// held link only when its method ranks strictly better, or ranks equal and
// carries a VLAN the held link lacks. Everything else about the held link,
// VLAN included, stays untouched by losing duplicates. The result is
// independent of input order for distinct pairs and sorted for stable
// output.
func Merge(conns []models.EnrichedConnection, logger *slog.Logger) ([]models.Link, Stats) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	stats := Stats{Total: len(conns)}
	held := make(map[string]models.Link)

	for _, c := range conns {
		if c.Local.Device == "" || c.Remote.Device == "" {
			stats.Incomplete++
			continue
		}
		link := models.Link{Local: c.Local, Remote: c.Remote, VLAN: c.VLAN, Method: c.Method}
		key := pairKey(c.Local, c.Remote)

		prev, seen := held[key]
		if !seen {
			held[key] = link
			stats.Kept++
			continue
		}
		if supersedes(link, prev) {
			held[key] = link
			stats.Replaced++
			logger.Debug("merge: replaced link",
				"pair", key, "old", string(prev.Method), "new", string(link.Method))
			continue
		}
		stats.Discarded++
	}

	links := make([]models.Link, 0, len(held))
	for _, l := range held {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		return pairKey(links[i].Local, links[i].Remote) < pairKey(links[j].Local, links[j].Remote)
	})

	logger.Info("merge: completed",
		"total", stats.Total, "kept", len(links),
		"replaced", stats.Replaced, "discarded", stats.Discarded,
		"incomplete", stats.Incomplete)
	return links, stats
}

// supersedes reports whether candidate should displace held.
func supersedes(candidate, held models.Link) bool {
	cr, hr := rank(candidate.Method), rank(held.Method)
	if cr != hr {
		return cr < hr
	}
	return candidate.VLAN != nil && held.VLAN == nil
}

// pairKey builds the unordered dedup key: both "device:port" halves, sorted,
// so A->B and B->A observations collapse onto one link.
func pairKey(a, b models.ConnectionEnd) string {
	ka, kb := a.Key(), b.Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
