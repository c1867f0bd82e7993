package cli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/netfab/topomapper/cli"
	"github.com/netfab/topomapper/models"
)

// fakeSession replays canned output per command.
type fakeSession struct {
	outputs map[string]string
	ran     []string
	closed  bool
}

func (s *fakeSession) Run(_ context.Context, cmd string) (string, error) {
	s.ran = append(s.ran, cmd)
	if out, ok := s.outputs[cmd]; ok {
		return out, nil
	}
	return "", nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func dialerFor(sess *fakeSession) cli.Dialer {
	return func(context.Context, string, cli.Credential, cli.SessionConfig) (cli.Session, error) {
		return sess, nil
	}
}

var device = models.Device{ID: 1, IP: "10.0.0.1", Hostname: "edge1", OSFamily: "ios"}

func TestDriverLLDP(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{
		"show lldp neighbors detail": `Chassis id: 001a.2b3c.4d5e
Local Intf: Gi0/1
Port id: Gi0/24
System Name: core-sw
`,
	}}
	drv := cli.NewDriver(dialerFor(sess), cli.SessionConfig{}, nil)

	obs, err := drv.LLDP(context.Background(), device, cli.Credential{Username: "admin"})
	if err != nil {
		t.Fatalf("LLDP: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	o := obs[0]
	if o.LocalDevice != models.HostnameEndpoint("edge1") {
		t.Errorf("LocalDevice = %v", o.LocalDevice)
	}
	if o.LocalPort != models.LabelEndpoint("Gi0/1") {
		t.Errorf("LocalPort = %v", o.LocalPort)
	}
	if o.RemoteDevice != models.SysNameEndpoint("core-sw") {
		t.Errorf("RemoteDevice = %v", o.RemoteDevice)
	}
	if o.Method != models.MethodCLILLDP {
		t.Errorf("Method = %v", o.Method)
	}

	// Paging must be disabled before the neighbor command runs.
	if len(sess.ran) != 2 || sess.ran[0] != "terminal length 0" {
		t.Errorf("commands = %v", sess.ran)
	}
	if !sess.closed {
		t.Error("session not closed")
	}
}

func TestDriverCDP(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{
		"show cdp neighbors detail": `-------------------------
Device ID: core-sw.example.com(SN123)
Interface: Gi0/1,  Port ID (outgoing port): Gi0/24
`,
	}}
	drv := cli.NewDriver(dialerFor(sess), cli.SessionConfig{}, nil)

	obs, err := drv.CDP(context.Background(), device, cli.Credential{Username: "admin"})
	if err != nil {
		t.Fatalf("CDP: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	o := obs[0]
	if o.RemoteDevice != models.SysNameEndpoint("core-sw") {
		t.Errorf("RemoteDevice = %v", o.RemoteDevice)
	}
	if o.RemotePort != models.LabelEndpoint("Gi0/24") {
		t.Errorf("RemotePort = %v", o.RemotePort)
	}
	if o.Method != models.MethodCLICDP {
		t.Errorf("Method = %v", o.Method)
	}
}

func TestDriver_DialFailureIsFailed(t *testing.T) {
	dial := func(context.Context, string, cli.Credential, cli.SessionConfig) (cli.Session, error) {
		return nil, errors.New("connection refused")
	}
	drv := cli.NewDriver(dial, cli.SessionConfig{}, nil)

	obs, err := drv.LLDP(context.Background(), device, cli.Credential{})
	if err == nil {
		t.Fatal("expected error")
	}
	if obs != nil {
		t.Fatal("failed attempt must return nil observations")
	}
}

func TestDriver_EmptyOutputIsEmptyNotFailed(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{
		"show lldp neighbors detail": "Total entries displayed: 0\n",
	}}
	drv := cli.NewDriver(dialerFor(sess), cli.SessionConfig{}, nil)

	obs, err := drv.LLDP(context.Background(), device, cli.Credential{})
	if err != nil {
		t.Fatalf("LLDP: %v", err)
	}
	if obs == nil || len(obs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", obs)
	}
}

func TestDriver_PlatformWithoutCDP(t *testing.T) {
	procurve := models.Device{ID: 2, IP: "10.0.0.2", Hostname: "sw2", OSFamily: "procurve"}
	dialed := false
	dial := func(context.Context, string, cli.Credential, cli.SessionConfig) (cli.Session, error) {
		dialed = true
		return &fakeSession{}, nil
	}
	drv := cli.NewDriver(dial, cli.SessionConfig{}, nil)

	obs, err := drv.CDP(context.Background(), procurve, cli.Credential{})
	if err != nil {
		t.Fatalf("CDP: %v", err)
	}
	if obs == nil || len(obs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", obs)
	}
	if dialed {
		t.Error("no session should be opened for an unsupported protocol")
	}
}
