package neighbors

import (
	"context"
	"fmt"

	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// ARP walks the ipNetToMedia table. Each row carries (ifIndex, IP) in the
// index and the neighbor's MAC as the value. The remote device is named by
// its IP; the remote port comes from the fleet MAC index when the address
// belongs to a managed port. Last-resort method: it proves reachability,
// not physical adjacency.
func (d *Drivers) ARP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error) {
	rows, err := d.walker.Walk(ctx, target, cred, oidIPNetToMediaPhysAddr)
	if err != nil {
		return nil, err
	}

	obs := make([]models.RawObservation, 0, len(rows))
	for _, row := range rows {
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 5 {
			d.logger.Warn("arp: unexpected row index", "target", target, "suffix", row.Suffix)
			continue
		}
		ifIndex := idx[0]
		ip := fmt.Sprintf("%d.%d.%d.%d", idx[1], idx[2], idx[3], idx[4])
		mac := walker.ToMAC(row.Value(0))
		if mac == "" {
			continue
		}

		remotePort := models.Endpoint{}
		if d.index != nil {
			if ref, ok := d.index.MACPort(mac); ok {
				remotePort = portRef(ref.Port)
			}
		}

		obs = append(obs, models.RawObservation{
			LocalDevice:  localRef(target),
			LocalPort:    models.IfIndexEndpoint(ifIndex),
			RemoteDevice: models.IPEndpoint(ip),
			RemotePort:   remotePort,
			Method:       models.MethodARP,
		})
	}
	return obs, nil
}
