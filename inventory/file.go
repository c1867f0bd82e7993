package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// FileSource — YAML-backed Inventory Source
// ─────────────────────────────────────────────────────────────────────────────

// FileSource is a Source backed by YAML files on disk. Each file holds a list
// of devices with nested ports and forwarding entries. It exists so the
// binary runs (and tests run) without an external inventory system; an
// HTTP-backed Source plugs in behind the same interface.
type FileSource struct {
	devices []models.Device
	ports   map[int64][]models.Port
	fdb     map[fdbKey][]models.ForwardingEntry
}

type fdbKey struct {
	deviceID int64
	portID   int64
}

// rawDeviceEntry mirrors the YAML schema for one device.
type rawDeviceEntry struct {
	ID       int64          `yaml:"id"`
	IP       string         `yaml:"ip"`
	Hostname string         `yaml:"hostname"`
	SysName  string         `yaml:"sys_name"`
	Purpose  string         `yaml:"purpose"`
	OSFamily string         `yaml:"os_family"`
	Ports    []rawPortEntry `yaml:"ports"`
}

type rawPortEntry struct {
	PortID      int64         `yaml:"port_id"`
	IfIndex     int64         `yaml:"ifindex"`
	Name        string        `yaml:"name"`
	Descr       string        `yaml:"descr"`
	Alias       string        `yaml:"alias"`
	MAC         string        `yaml:"mac"`
	AdminStatus string        `yaml:"admin_status"`
	OperStatus  string        `yaml:"oper_status"`
	Media       string        `yaml:"media"`
	FDB         []rawFDBEntry `yaml:"fdb"`
}

type rawFDBEntry struct {
	MAC  string `yaml:"mac"`
	VLAN *int   `yaml:"vlan"`
}

type rawInventoryFile struct {
	Devices []rawDeviceEntry `yaml:"devices"`
}

// LoadFileSource reads every *.yml / *.yaml file under dir and builds a
// FileSource. Malformed files are skipped with a warning so one bad file
// does not take the whole inventory down.
func LoadFileSource(dir string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	paths, err := yamlFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("inventory: list dir %q: %w", dir, err)
	}

	src := &FileSource{
		ports: make(map[int64][]models.Port),
		fdb:   make(map[fdbKey][]models.ForwardingEntry),
	}

	for _, path := range paths {
		var raw rawInventoryFile
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("inventory: skip malformed file", "file", path, "error", err.Error())
			continue
		}
		for _, d := range raw.Devices {
			src.addDevice(d)
		}
		logger.Debug("inventory: loaded file", "file", path, "devices", len(raw.Devices))
	}
	return src, nil
}

func (s *FileSource) addDevice(d rawDeviceEntry) {
	s.devices = append(s.devices, models.Device{
		ID:       d.ID,
		IP:       d.IP,
		Hostname: d.Hostname,
		SysName:  d.SysName,
		Purpose:  d.Purpose,
		OSFamily: d.OSFamily,
	})
	for _, p := range d.Ports {
		port := models.Port{
			DeviceID:    d.ID,
			PortID:      p.PortID,
			IfIndex:     p.IfIndex,
			Name:        p.Name,
			Descr:       p.Descr,
			Alias:       p.Alias,
			MAC:         models.NormalizeMAC(p.MAC),
			AdminStatus: portStatus(p.AdminStatus),
			OperStatus:  portStatus(p.OperStatus),
			Media:       p.Media,
		}
		s.ports[d.ID] = append(s.ports[d.ID], port)

		if len(p.FDB) == 0 {
			continue
		}
		key := fdbKey{deviceID: d.ID, portID: p.PortID}
		for _, e := range p.FDB {
			mac := models.NormalizeMAC(e.MAC)
			if mac == "" {
				continue
			}
			s.fdb[key] = append(s.fdb[key], models.ForwardingEntry{MAC: mac, VLAN: e.VLAN})
		}
	}
}

func portStatus(s string) models.PortStatus {
	switch strings.ToLower(s) {
	case "up":
		return models.StatusUp
	case "down":
		return models.StatusDown
	case "testing":
		return models.StatusTesting
	case "lowerlayerdown":
		return models.StatusLowerLayerDown
	case "notpresent":
		return models.StatusNotPresent
	default:
		return models.StatusUnknown
	}
}

// Devices implements Source.
func (s *FileSource) Devices(_ context.Context) ([]models.Device, error) {
	out := make([]models.Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

// Ports implements Source.
func (s *FileSource) Ports(_ context.Context, deviceID int64) ([]models.Port, error) {
	out := make([]models.Port, len(s.ports[deviceID]))
	copy(out, s.ports[deviceID])
	return out, nil
}

// ForwardingEntries implements Source.
func (s *FileSource) ForwardingEntries(_ context.Context, deviceID, portID int64) ([]models.ForwardingEntry, error) {
	entries := s.fdb[fdbKey{deviceID: deviceID, portID: portID}]
	out := make([]models.ForwardingEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// File helpers
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
	dec.KnownFields(false) // be lenient — extra keys are fine
	return dec.Decode(out)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
