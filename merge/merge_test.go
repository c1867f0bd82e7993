package merge_test

import (
	"testing"

	"github.com/netfab/topomapper/merge"
	"github.com/netfab/topomapper/models"
)

func conn(local, localPort, remote, remotePort string, method models.Method, vlan *int) models.EnrichedConnection {
	return models.EnrichedConnection{
		Local:  models.ConnectionEnd{Device: local, PortName: localPort},
		Remote: models.ConnectionEnd{Device: remote, PortName: remotePort},
		VLAN:   vlan,
		Method: method,
	}
}

func vlanPtr(v int) *int { return &v }

func TestMerge_UnorderedPairCollapses(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodCDP, nil),
		conn("core-sw", "Gi0/24", "edge1", "Gi0/1", models.MethodCDP, nil), // reverse direction
	}

	links, stats := merge.Merge(conns, nil)
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if stats.Kept != 1 || stats.Discarded != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMerge_BetterMethodReplaces(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodARP, nil),
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodLLDP, nil),
	}

	links, stats := merge.Merge(conns, nil)
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Method != models.MethodLLDP {
		t.Errorf("Method = %v, want LLDP", links[0].Method)
	}
	if stats.Replaced != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMerge_WorseMethodDiscarded(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodLLDP, nil),
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodARP, vlanPtr(10)),
	}

	links, _ := merge.Merge(conns, nil)
	if links[0].Method != models.MethodLLDP {
		t.Errorf("Method = %v", links[0].Method)
	}
	// The losing observation's VLAN must not leak onto the kept link.
	if links[0].VLAN != nil {
		t.Errorf("VLAN = %v, want nil", *links[0].VLAN)
	}
}

func TestMerge_VLANBreaksRankTie(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodQBridge, nil),
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodQBridge, vlanPtr(30)),
	}

	links, _ := merge.Merge(conns, nil)
	if links[0].VLAN == nil || *links[0].VLAN != 30 {
		t.Errorf("VLAN = %v, want 30", links[0].VLAN)
	}
}

func TestMerge_EqualRankFirstSeenWins(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodCDP, vlanPtr(10)),
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodCDP, vlanPtr(20)),
	}

	links, stats := merge.Merge(conns, nil)
	if *links[0].VLAN != 10 {
		t.Errorf("VLAN = %d, want first-seen 10", *links[0].VLAN)
	}
	if stats.Discarded != 1 || stats.Replaced != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMerge_OrderIndependentForDistinctPairs(t *testing.T) {
	a := conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodLLDP, nil)
	b := conn("edge2", "Gi0/1", "core-sw", "Gi0/23", models.MethodCDP, nil)
	c := conn("edge3", "Gi0/1", "dist-sw", "Eth1/1", models.MethodARP, nil)

	forward, _ := merge.Merge([]models.EnrichedConnection{a, b, c}, nil)
	backward, _ := merge.Merge([]models.EnrichedConnection{c, b, a}, nil)

	if len(forward) != 3 || len(backward) != 3 {
		t.Fatalf("lengths %d / %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].String() != backward[i].String() {
			t.Errorf("order dependence at %d: %q vs %q", i, forward[i], backward[i])
		}
	}
}

func TestMerge_IncompleteDropped(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("", "Gi0/1", "core-sw", "Gi0/24", models.MethodLLDP, nil),
		conn("edge1", "Gi0/1", "", "", models.MethodLLDP, nil),
	}

	links, stats := merge.Merge(conns, nil)
	if len(links) != 0 {
		t.Fatalf("expected 0 links, got %d", len(links))
	}
	if stats.Incomplete != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMerge_UnknownMethodRanksLast(t *testing.T) {
	conns := []models.EnrichedConnection{
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.Method("EXPERIMENTAL"), nil),
		conn("edge1", "Gi0/1", "core-sw", "Gi0/24", models.MethodARP, nil),
	}

	links, _ := merge.Merge(conns, nil)
	if links[0].Method != models.MethodARP {
		t.Errorf("Method = %v, want ARP to beat unknown", links[0].Method)
	}
}
