package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netfab/topomapper/pkg/topomapper/config"
)

func writeSettings(t *testing.T, files map[string]string) config.Paths {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return config.Paths{Settings: dir, Inventory: t.TempDir()}
}

func TestLoad_Defaults(t *testing.T) {
	paths := config.Paths{Settings: filepath.Join(t.TempDir(), "missing"), Inventory: ""}

	s, err := config.Load(paths, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SNMP.Port != 161 || s.SNMP.TimeoutMS != 3000 || s.SNMP.Retries != 2 {
		t.Errorf("SNMP defaults = %+v", s.SNMP)
	}
	if len(s.SNMP.Communities) != 1 || s.SNMP.Communities[0] != "public" {
		t.Errorf("Communities = %v", s.SNMP.Communities)
	}
	if s.Workers != 8 {
		t.Errorf("Workers = %d", s.Workers)
	}
	if s.Output.Format != "text" || s.Output.Path != "-" {
		t.Errorf("Output = %+v", s.Output)
	}
}

func TestLoad_FullSettings(t *testing.T) {
	paths := writeSettings(t, map[string]string{"settings.yaml": `
snmp:
  port: 1161
  timeout_ms: 500
  retries: 1
  communities: [ops, public]
  v3_users:
    - username: mapper
      auth_protocol: sha
      auth_passphrase: authpass
      priv_protocol: aes
      priv_passphrase: privpass
cli:
  username: admin
  password: secret
  port: 2222
output:
  format: json
  path: /tmp/links.json
workers: 4
targets: [edge1, 10.0.0.2]
`})

	s, err := config.Load(paths, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SNMP.Port != 1161 || s.SNMP.Retries != 1 {
		t.Errorf("SNMP = %+v", s.SNMP)
	}
	if len(s.Targets) != 2 || s.Workers != 4 {
		t.Errorf("Targets/Workers = %v/%d", s.Targets, s.Workers)
	}

	creds := s.SNMPCredentials()
	if len(creds) != 3 {
		t.Fatalf("expected 3 credentials, got %d", len(creds))
	}
	if creds[0].Label() != "v2c:ops" || creds[1].Label() != "v2c:public" {
		t.Errorf("community order = %s, %s", creds[0].Label(), creds[1].Label())
	}
	if creds[2].Label() != "v3:mapper" {
		t.Errorf("v3 credential = %s", creds[2].Label())
	}
	if creds[2].V3 == nil || creds[2].V3.AuthProtocol != "sha" || creds[2].V3.PrivPassphrase != "privpass" {
		t.Errorf("v3 params = %+v", creds[2].V3)
	}

	opts := s.SessionOptions()
	if opts.Port != 1161 || opts.Timeout != 500*time.Millisecond {
		t.Errorf("SessionOptions = %+v", opts)
	}

	sc := s.CLISessionConfig()
	if sc.Port != 2222 || sc.ConnectTimeout != 10*time.Second {
		t.Errorf("CLISessionConfig = %+v", sc)
	}
}

func TestLoad_MergeFirstWriteWins(t *testing.T) {
	paths := writeSettings(t, map[string]string{
		"10-base.yaml":     "snmp:\n  communities: [ops]\nworkers: 2\n",
		"20-override.yaml": "snmp:\n  communities: [ignored]\n  retries: 5\nworkers: 99\n",
	})

	s, err := config.Load(paths, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Files merge in path order; the first file to set a field wins.
	if len(s.SNMP.Communities) != 1 || s.SNMP.Communities[0] != "ops" {
		t.Errorf("Communities = %v", s.SNMP.Communities)
	}
	if s.Workers != 2 {
		t.Errorf("Workers = %d, want 2", s.Workers)
	}
	// Fields only the second file sets still land.
	if s.SNMP.Retries != 5 {
		t.Errorf("Retries = %d, want 5", s.SNMP.Retries)
	}
}

func TestLoad_MalformedFileSkipped(t *testing.T) {
	paths := writeSettings(t, map[string]string{
		"bad.yaml":  "snmp: [broken",
		"good.yaml": "workers: 3\n",
	})

	s, err := config.Load(paths, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from the good file", s.Workers)
	}
}

func TestCLICredential_ReadsKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, []byte("FAKE KEY MATERIAL"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := config.Settings{}
	s.CLI.Username = "admin"
	s.CLI.PrivateKeyFile = keyPath

	cred, err := s.CLICredential()
	if err != nil {
		t.Fatalf("CLICredential: %v", err)
	}
	if cred.PrivateKey != "FAKE KEY MATERIAL" {
		t.Errorf("PrivateKey = %q", cred.PrivateKey)
	}
}

func TestCLICredential_MissingKeyFile(t *testing.T) {
	s := config.Settings{}
	s.CLI.PrivateKeyFile = filepath.Join(t.TempDir(), "nope")

	if _, err := s.CLICredential(); err == nil {
		t.Fatal("expected error for missing key file")
	}
}
