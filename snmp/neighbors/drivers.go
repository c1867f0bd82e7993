package neighbors

import (
	"context"
	"log/slog"

	"github.com/netfab/topomapper/inventory"
	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver set
// ─────────────────────────────────────────────────────────────────────────────

// TableWalker is the walker surface the drivers consume. Tests substitute a
// canned-row implementation; production passes *walker.Client.
type TableWalker interface {
	Walk(ctx context.Context, target string, cred walker.Credential, base string) ([]walker.Row, error)
	WalkColumns(ctx context.Context, target string, cred walker.Credential, bases []string) ([]walker.Row, error)
}

// Drivers bundles the walker and the fleet index the FDB/ARP drivers consult
// to name the remote end of a learned address.
type Drivers struct {
	walker TableWalker
	index  *inventory.Index
	logger *slog.Logger
}

// New constructs the driver set. index may be nil only when the FDB and ARP
// drivers will not be used.
func New(w TableWalker, index *inventory.Index, logger *slog.Logger) *Drivers {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Drivers{walker: w, index: index, logger: logger}
}

// localRef is the identifier every driver attaches as the local device: the
// address the SNMP session was opened against.
func localRef(target string) models.Endpoint {
	return models.IPEndpoint(target)
}

// deviceRef picks the most natural re-resolvable identifier for an
// inventory device found through the MAC index.
func deviceRef(d models.Device) models.Endpoint {
	switch {
	case d.Hostname != "":
		return models.HostnameEndpoint(d.Hostname)
	case d.IP != "":
		return models.IPEndpoint(d.IP)
	case d.SysName != "":
		return models.SysNameEndpoint(d.SysName)
	default:
		return models.Endpoint{}
	}
}

// portRef picks the best port identifier for an indexed port.
func portRef(p models.Port) models.Endpoint {
	if p.Name != "" {
		return models.LabelEndpoint(p.Name)
	}
	if p.IfIndex > 0 {
		return models.IfIndexEndpoint(p.IfIndex)
	}
	return models.Endpoint{}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
