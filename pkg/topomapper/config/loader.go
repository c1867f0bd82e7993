package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Raw YAML schema
// ─────────────────────────────────────────────────────────────────────────────

type rawSettings struct {
	SNMP struct {
		Port        int      `yaml:"port"`
		TimeoutMS   int      `yaml:"timeout_ms"`
		Retries     int      `yaml:"retries"`
		Communities []string `yaml:"communities"`
		V3Users     []struct {
			Username  string `yaml:"username"`
			AuthProto string `yaml:"auth_protocol"`
			AuthPass  string `yaml:"auth_passphrase"`
			PrivProto string `yaml:"priv_protocol"`
			PrivPass  string `yaml:"priv_passphrase"`
		} `yaml:"v3_users"`
	} `yaml:"snmp"`

	CLI struct {
		Username         string `yaml:"username"`
		Password         string `yaml:"password"`
		PrivateKeyFile   string `yaml:"private_key_file"`
		Port             int    `yaml:"port"`
		ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
		ReadTimeoutMS    int    `yaml:"read_timeout_ms"`
	} `yaml:"cli"`

	Output struct {
		Format string `yaml:"format"`
		Path   string `yaml:"path"`
	} `yaml:"output"`

	Workers int      `yaml:"workers"`
	Targets []string `yaml:"targets"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// Load reads every YAML file under the settings directory, in path order,
// and merges them first-write-wins per field, so an operator can split
// credentials and tuning across files. A missing directory yields pure
// defaults. Malformed files are skipped with a warning so one bad drop-in
// never takes the run down.
func Load(paths Paths, logger *slog.Logger) (*Settings, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	var s Settings
	files, err := yamlFiles(paths.Settings)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: list settings dir %q: %w", paths.Settings, err)
	}

	for _, path := range files {
		var raw rawSettings
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed settings file", "file", path, "error", err.Error())
			continue
		}
		mergeSettings(&s, raw)
		logger.Debug("config: loaded settings file", "file", path)
	}

	s.resolve()
	return &s, nil
}

// mergeSettings fills zero fields in dst with values from src.
func mergeSettings(dst *Settings, src rawSettings) {
	if dst.SNMP.Port == 0 {
		dst.SNMP.Port = src.SNMP.Port
	}
	if dst.SNMP.TimeoutMS == 0 {
		dst.SNMP.TimeoutMS = src.SNMP.TimeoutMS
	}
	if dst.SNMP.Retries == 0 {
		dst.SNMP.Retries = src.SNMP.Retries
	}
	if len(dst.SNMP.Communities) == 0 {
		dst.SNMP.Communities = src.SNMP.Communities
	}
	if len(dst.SNMP.V3Users) == 0 {
		for _, u := range src.SNMP.V3Users {
			dst.SNMP.V3Users = append(dst.SNMP.V3Users, V3User(u))
		}
	}
	if dst.CLI.Username == "" {
		dst.CLI.Username = src.CLI.Username
	}
	if dst.CLI.Password == "" {
		dst.CLI.Password = src.CLI.Password
	}
	if dst.CLI.PrivateKeyFile == "" {
		dst.CLI.PrivateKeyFile = src.CLI.PrivateKeyFile
	}
	if dst.CLI.Port == 0 {
		dst.CLI.Port = src.CLI.Port
	}
	if dst.CLI.ConnectTimeoutMS == 0 {
		dst.CLI.ConnectTimeoutMS = src.CLI.ConnectTimeoutMS
	}
	if dst.CLI.ReadTimeoutMS == 0 {
		dst.CLI.ReadTimeoutMS = src.CLI.ReadTimeoutMS
	}
	if dst.Output.Format == "" {
		dst.Output.Format = src.Output.Format
	}
	if dst.Output.Path == "" {
		dst.Output.Path = src.Output.Path
	}
	if dst.Workers == 0 {
		dst.Workers = src.Workers
	}
	if len(dst.Targets) == 0 {
		dst.Targets = src.Targets
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// yamlFiles returns all *.yml / *.yaml files under dir, sorted by path.
func yamlFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

// decodeFile opens path and unmarshals the YAML content into out.
func decodeFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false) // be lenient, extra keys are fine
	return dec.Decode(out)
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
