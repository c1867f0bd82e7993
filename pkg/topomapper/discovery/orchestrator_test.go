package discovery_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/netfab/topomapper/cli"
	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/pkg/topomapper/discovery"
	"github.com/netfab/topomapper/snmp/walker"
)

type snmpResult struct {
	obs []models.RawObservation
	err error
}

// fakeSNMP answers each driver per credential label and counts calls.
type fakeSNMP struct {
	mu    sync.Mutex
	lldp  map[string]snmpResult
	cdp   map[string]snmpResult
	fdb   map[string]snmpResult
	qbr   map[string]snmpResult
	arp   map[string]snmpResult
	calls map[string]int
}

func newFakeSNMP() *fakeSNMP {
	return &fakeSNMP{
		lldp: map[string]snmpResult{}, cdp: map[string]snmpResult{},
		fdb: map[string]snmpResult{}, qbr: map[string]snmpResult{},
		arp: map[string]snmpResult{}, calls: map[string]int{},
	}
}

func (f *fakeSNMP) answer(table map[string]snmpResult, name string, cred walker.Credential) ([]models.RawObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if r, ok := table[cred.Label()]; ok {
		return r.obs, r.err
	}
	return []models.RawObservation{}, nil
}

func (f *fakeSNMP) LLDP(_ context.Context, _ string, cred walker.Credential) ([]models.RawObservation, error) {
	return f.answer(f.lldp, "lldp", cred)
}
func (f *fakeSNMP) CDP(_ context.Context, _ string, cred walker.Credential) ([]models.RawObservation, error) {
	return f.answer(f.cdp, "cdp", cred)
}
func (f *fakeSNMP) BridgeFDB(_ context.Context, _ string, cred walker.Credential) ([]models.RawObservation, error) {
	return f.answer(f.fdb, "fdb", cred)
}
func (f *fakeSNMP) QBridgeFDB(_ context.Context, _ string, cred walker.Credential) ([]models.RawObservation, error) {
	return f.answer(f.qbr, "qbridge", cred)
}
func (f *fakeSNMP) ARP(_ context.Context, _ string, cred walker.Credential) ([]models.RawObservation, error) {
	return f.answer(f.arp, "arp", cred)
}

func (f *fakeSNMP) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// fakeCLI answers the SSH scraping surface.
type fakeCLI struct {
	lldp snmpResult
	cdp  snmpResult

	lldpCalls int
	cdpCalls  int
}

func (f *fakeCLI) LLDP(context.Context, models.Device, cli.Credential) ([]models.RawObservation, error) {
	f.lldpCalls++
	return f.lldp.obs, f.lldp.err
}
func (f *fakeCLI) CDP(context.Context, models.Device, cli.Credential) ([]models.RawObservation, error) {
	f.cdpCalls++
	return f.cdp.obs, f.cdp.err
}

var (
	pub = walker.Credential{Version: "2c", Community: "public"}
	sec = walker.Credential{Version: "2c", Community: "secret"}

	dev = models.Device{ID: 1, IP: "10.0.0.1", Hostname: "edge1"}
)

func obsFor(method models.Method, remote string) models.RawObservation {
	return models.RawObservation{
		LocalDevice:  models.IPEndpoint("10.0.0.1"),
		LocalPort:    models.IfIndexEndpoint(1),
		RemoteDevice: models.HostnameEndpoint(remote),
		RemotePort:   models.LabelEndpoint("Gi0/24"),
		Method:       method,
	}
}

func TestDiscover_FirstStepWinsShortCircuits(t *testing.T) {
	snmp := newFakeSNMP()
	snmp.lldp["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodLLDP, "core-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	obs, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "snmp-neighbors" {
		t.Errorf("step = %q", step)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if snmp.callCount("fdb") != 0 || snmp.callCount("arp") != 0 {
		t.Error("later steps must not run once a step yields")
	}
}

func TestDiscover_CombinesLLDPAndCDP(t *testing.T) {
	snmp := newFakeSNMP()
	snmp.lldp["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodLLDP, "core-sw")}}
	snmp.cdp["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodCDP, "dist-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	obs, _, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
}

func TestDiscover_StepOneDedupsIdenticalEntries(t *testing.T) {
	same := obsFor(models.MethodLLDP, "core-sw")
	snmp := newFakeSNMP()
	snmp.lldp["v2c:public"] = snmpResult{obs: []models.RawObservation{same}}
	snmp.cdp["v2c:public"] = snmpResult{obs: []models.RawObservation{same}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	obs, _, _ := orch.Discover(context.Background(), dev)
	if len(obs) != 1 {
		t.Fatalf("expected deduped single observation, got %d", len(obs))
	}
}

func TestDiscover_FallsThroughFailedSteps(t *testing.T) {
	snmp := newFakeSNMP()
	boom := errors.New("timeout")
	snmp.lldp["v2c:public"] = snmpResult{err: boom}
	snmp.cdp["v2c:public"] = snmpResult{err: boom}
	snmp.fdb["v2c:public"] = snmpResult{err: boom}
	snmp.qbr["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodQBridge, "core-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	obs, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "snmp-qbridge" {
		t.Errorf("step = %q", step)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
}

func TestDiscover_EmptyStepStopsRetryButChainContinues(t *testing.T) {
	// LLDP+CDP answer cleanly with nothing; bridge FDB then wins.
	snmp := newFakeSNMP()
	snmp.fdb["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodFDB, "core-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub, sec}, cli.Credential{}, nil)
	_, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "snmp-fdb" {
		t.Errorf("step = %q", step)
	}
	// First credential answered (empty): the second must not be tried.
	if got := snmp.callCount("lldp"); got != 1 {
		t.Errorf("lldp calls = %d, want 1", got)
	}
}

func TestDiscover_CredentialRetry(t *testing.T) {
	snmp := newFakeSNMP()
	snmp.lldp["v2c:public"] = snmpResult{err: errors.New("auth failure")}
	snmp.cdp["v2c:public"] = snmpResult{err: errors.New("auth failure")}
	snmp.lldp["v2c:secret"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodLLDP, "core-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub, sec}, cli.Credential{}, nil)
	obs, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "snmp-neighbors" || len(obs) != 1 {
		t.Fatalf("step=%q obs=%d", step, len(obs))
	}
}

func TestDiscover_CLITriesLLDPThenCDP(t *testing.T) {
	snmp := newFakeSNMP() // everything empty
	cliDrv := &fakeCLI{
		lldp: snmpResult{obs: []models.RawObservation{}},
		cdp:  snmpResult{obs: []models.RawObservation{obsFor(models.MethodCLICDP, "core-sw")}},
	}

	orch := discovery.NewOrchestrator(snmp, cliDrv, nil, []walker.Credential{pub}, cli.Credential{Username: "admin"}, nil)
	obs, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "cli" {
		t.Errorf("step = %q", step)
	}
	if len(obs) != 1 || obs[0].Method != models.MethodCLICDP {
		t.Fatalf("obs = %v", obs)
	}
	if cliDrv.lldpCalls != 1 || cliDrv.cdpCalls != 1 {
		t.Errorf("cli calls = %d/%d", cliDrv.lldpCalls, cliDrv.cdpCalls)
	}
}

func TestDiscover_CLILLDPWinsWithoutCDP(t *testing.T) {
	snmp := newFakeSNMP()
	cliDrv := &fakeCLI{
		lldp: snmpResult{obs: []models.RawObservation{obsFor(models.MethodCLILLDP, "core-sw")}},
	}

	orch := discovery.NewOrchestrator(snmp, cliDrv, nil, []walker.Credential{pub}, cli.Credential{Username: "admin"}, nil)
	_, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "cli" {
		t.Errorf("step = %q", step)
	}
	if cliDrv.cdpCalls != 0 {
		t.Error("CDP must not run when CLI LLDP yields")
	}
}

func TestDiscover_AllEmptyIsCleanSilence(t *testing.T) {
	snmp := newFakeSNMP()

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	obs, step, err := orch.Discover(context.Background(), dev)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if step != "" {
		t.Errorf("step = %q, want none", step)
	}
	if obs == nil || len(obs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", obs)
	}
	// Every SNMP rung of the ladder must have been consulted.
	for _, name := range []string{"lldp", "cdp", "fdb", "qbridge", "arp"} {
		if snmp.callCount(name) != 1 {
			t.Errorf("%s calls = %d, want 1", name, snmp.callCount(name))
		}
	}
}

func TestDiscover_AllStepsFailedReturnsError(t *testing.T) {
	snmp := newFakeSNMP()
	boom := errors.New("host unreachable")
	for _, table := range []map[string]snmpResult{snmp.lldp, snmp.cdp, snmp.fdb, snmp.qbr, snmp.arp} {
		table["v2c:public"] = snmpResult{err: boom}
	}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	_, _, err := orch.Discover(context.Background(), dev)
	if err == nil {
		t.Fatal("expected error when every step failed")
	}
	if !errors.Is(err, boom) {
		t.Errorf("joined error should carry the step failures, got %v", err)
	}
}

func TestRunnerCountsUnreachableDeviceAsFailed(t *testing.T) {
	snmp := newFakeSNMP()
	boom := errors.New("host unreachable")
	for _, table := range []map[string]snmpResult{snmp.lldp, snmp.cdp, snmp.fdb, snmp.qbr, snmp.arp} {
		table["v2c:public"] = snmpResult{err: boom}
	}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	_, stats := discovery.Discover(context.Background(), orch, []models.Device{dev}, 1, nil)
	if stats.Failed != 1 || stats.Silent != 0 || stats.Answered != 0 {
		t.Fatalf("stats = %+v, want the device counted failed", stats)
	}
}

func TestRunnerDiscoversFleet(t *testing.T) {
	snmp := newFakeSNMP()
	snmp.lldp["v2c:public"] = snmpResult{obs: []models.RawObservation{obsFor(models.MethodLLDP, "core-sw")}}

	orch := discovery.NewOrchestrator(snmp, nil, nil, []walker.Credential{pub}, cli.Credential{}, nil)
	devices := []models.Device{
		{ID: 1, IP: "10.0.0.1"},
		{ID: 2, IP: "10.0.0.2"},
		{ID: 3, IP: "10.0.0.3"},
	}

	obs, stats := discovery.Discover(context.Background(), orch, devices, 2, nil)
	if stats.Devices != 3 || stats.Answered != 3 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	if stats.PerStep["snmp-neighbors"] != 3 {
		t.Errorf("PerStep = %v", stats.PerStep)
	}
}
