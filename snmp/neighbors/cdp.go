package neighbors

import (
	"context"

	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// CDP walks the CISCO-CDP-MIB cache table's device-id and device-port
// columns in lock-step. The row index is (ifIndex, deviceIndex), so the
// local interface comes from the first suffix component. Device identifiers
// are stripped of a trailing DNS domain unless the dot sits inside
// parentheses (IP-shaped IDs).
func (d *Drivers) CDP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error) {
	rows, err := d.walker.WalkColumns(ctx, target, cred,
		[]string{oidCDPCacheDeviceID, oidCDPCacheDevicePort})
	if err != nil {
		return nil, err
	}

	obs := make([]models.RawObservation, 0, len(rows))
	for _, row := range rows {
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 2 {
			d.logger.Warn("cdp: unexpected cache row index", "target", target, "suffix", row.Suffix)
			continue
		}
		ifIndex := idx[0]

		deviceID := models.StripCDPDomain(walker.ToString(row.Value(0)))
		devicePort := walker.ToString(row.Value(1))
		if deviceID == "" || devicePort == "" {
			continue
		}

		obs = append(obs, models.RawObservation{
			LocalDevice:  localRef(target),
			LocalPort:    models.IfIndexEndpoint(ifIndex),
			RemoteDevice: models.HostnameEndpoint(deviceID),
			RemotePort:   models.LabelEndpoint(devicePort),
			Method:       models.MethodCDP,
		})
	}
	return obs, nil
}
