// Package config provides YAML configuration loading for the topology
// mapper.
//
// It reads two directory trees (driven by environment variables) and
// produces a Settings value used by the rest of the application.
//
//	TOPOMAPPER_SETTINGS_DIRECTORY_PATH  → run settings (credentials, tuning)
//	TOPOMAPPER_INVENTORY_DIRECTORY_PATH → device inventory files
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/netfab/topomapper/cli"
	"github.com/netfab/topomapper/snmp/walker"
)

// ─────────────────────────────────────────────────────────────────────────────
// Paths
// ─────────────────────────────────────────────────────────────────────────────

// Paths holds the directory locations for every configuration tree.
type Paths struct {
	Settings  string // TOPOMAPPER_SETTINGS_DIRECTORY_PATH
	Inventory string // TOPOMAPPER_INVENTORY_DIRECTORY_PATH
}

// PathsFromEnv reads each path from its environment variable, falling back
// to the documented default when the variable is unset or empty.
func PathsFromEnv() Paths {
	return Paths{
		Settings:  envOr("TOPOMAPPER_SETTINGS_DIRECTORY_PATH", "/etc/topomapper/settings"),
		Inventory: envOr("TOPOMAPPER_INVENTORY_DIRECTORY_PATH", "/etc/topomapper/inventory"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// SNMPSettings tunes the SNMP drivers. Communities and V3 users together
// form the credential list the orchestrator retries in order.
type SNMPSettings struct {
	Port        int
	TimeoutMS   int
	Retries     int
	Communities []string
	V3Users     []V3User
}

// V3User is one SNMPv3 USM identity.
type V3User struct {
	Username  string
	AuthProto string
	AuthPass  string
	PrivProto string
	PrivPass  string
}

// CLISettings tunes the SSH scraper.
type CLISettings struct {
	Username         string
	Password         string
	PrivateKeyFile   string
	Port             int
	ConnectTimeoutMS int
	ReadTimeoutMS    int
}

// OutputSettings selects the link sink.
type OutputSettings struct {
	Format string // "text" or "json"
	Path   string // "-" means stdout
}

// Settings is the fully resolved run configuration.
type Settings struct {
	SNMP    SNMPSettings
	CLI     CLISettings
	Output  OutputSettings
	Workers int

	// Targets restricts a run to the named devices (matched against
	// hostname, IP or purpose). Empty means the whole inventory.
	Targets []string
}

// resolve fills hard defaults into zero fields after all files merged.
func (s *Settings) resolve() {
	if s.SNMP.Port == 0 {
		s.SNMP.Port = 161
	}
	if s.SNMP.TimeoutMS == 0 {
		s.SNMP.TimeoutMS = 3000
	}
	if s.SNMP.Retries == 0 {
		s.SNMP.Retries = 2
	}
	if len(s.SNMP.Communities) == 0 && len(s.SNMP.V3Users) == 0 {
		s.SNMP.Communities = []string{"public"}
	}
	if s.CLI.Port == 0 {
		s.CLI.Port = 22
	}
	if s.CLI.ConnectTimeoutMS == 0 {
		s.CLI.ConnectTimeoutMS = 10000
	}
	if s.CLI.ReadTimeoutMS == 0 {
		s.CLI.ReadTimeoutMS = 15000
	}
	if s.Output.Format == "" {
		s.Output.Format = "text"
	}
	if s.Output.Path == "" {
		s.Output.Path = "-"
	}
	if s.Workers == 0 {
		s.Workers = 8
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver views
// ─────────────────────────────────────────────────────────────────────────────

// SNMPCredentials expands the settings into the ordered credential list the
// orchestrator retries: v2c communities first, then v3 users.
func (s Settings) SNMPCredentials() []walker.Credential {
	creds := make([]walker.Credential, 0, len(s.SNMP.Communities)+len(s.SNMP.V3Users))
	for _, community := range s.SNMP.Communities {
		creds = append(creds, walker.Credential{Version: "2c", Community: community})
	}
	for _, u := range s.SNMP.V3Users {
		creds = append(creds, walker.Credential{
			Version: "3",
			V3: &walker.V3Credential{
				Username:       u.Username,
				AuthProtocol:   u.AuthProto,
				AuthPassphrase: u.AuthPass,
				PrivProtocol:   u.PrivProto,
				PrivPassphrase: u.PrivPass,
			},
		})
	}
	return creds
}

// SessionOptions builds the per-session SNMP tuning.
func (s Settings) SessionOptions() walker.Options {
	return walker.Options{
		Port:    s.SNMP.Port,
		Timeout: time.Duration(s.SNMP.TimeoutMS) * time.Millisecond,
		Retries: s.SNMP.Retries,
	}
}

// CLICredential loads the SSH identity, reading the private key file when
// one is configured.
func (s Settings) CLICredential() (cli.Credential, error) {
	cred := cli.Credential{
		Username: s.CLI.Username,
		Password: s.CLI.Password,
	}
	if s.CLI.PrivateKeyFile != "" {
		key, err := os.ReadFile(s.CLI.PrivateKeyFile)
		if err != nil {
			return cli.Credential{}, fmt.Errorf("config: read ssh key %q: %w", s.CLI.PrivateKeyFile, err)
		}
		cred.PrivateKey = string(key)
	}
	return cred, nil
}

// CLISessionConfig builds the SSH session tuning.
func (s Settings) CLISessionConfig() cli.SessionConfig {
	return cli.SessionConfig{
		Port:           s.CLI.Port,
		ConnectTimeout: time.Duration(s.CLI.ConnectTimeoutMS) * time.Millisecond,
		ReadTimeout:    time.Duration(s.CLI.ReadTimeoutMS) * time.Millisecond,
	}
}
