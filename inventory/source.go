// Package inventory defines the Inventory Source contract and the fleet-wide
// index built from it. The index is constructed once per run, before any
// device discovery starts, and is read-only afterwards — it is the only piece
// of fleet-wide state in the engine.
package inventory

import (
	"context"

	"github.com/netfab/topomapper/models"
)

// Source supplies the device list, per-device ports, and per-port learned
// forwarding entries. Implementations must tolerate being unreachable by
// returning an error rather than panicking; the caller decides whether a
// failed call is fatal (it is only for the initial device list).
type Source interface {
	// Devices returns every managed device known to the inventory.
	Devices(ctx context.Context) ([]models.Device, error)

	// Ports returns the port list for one device.
	Ports(ctx context.Context, deviceID int64) ([]models.Port, error)

	// ForwardingEntries returns the learned MAC entries on one port.
	ForwardingEntries(ctx context.Context, deviceID, portID int64) ([]models.ForwardingEntry, error)
}
