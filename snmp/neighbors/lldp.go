package neighbors

import (
	"context"
	"strconv"

	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// LLDP walks the LLDP-MIB remote table in lock-step (system name, port id,
// port description), joins it with the local port table to translate LLDP
// local port numbers into interface identities, and emits one observation
// per remote entry.
func (d *Drivers) LLDP(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error) {
	remote, err := d.walker.WalkColumns(ctx, target, cred,
		[]string{oidLLDPRemSysName, oidLLDPRemPortID, oidLLDPRemPortDesc})
	if err != nil {
		return nil, err
	}

	// Local port table: localPortNum → endpoint. A failure here degrades the
	// local port identity but does not fail the method — the remote table is
	// the authoritative part.
	localPorts := map[int64]models.Endpoint{}
	if locRows, lerr := d.walker.WalkColumns(ctx, target, cred,
		[]string{oidLLDPLocPortIDSubtype, oidLLDPLocPortID}); lerr == nil {
		for _, row := range locRows {
			num, ok := walker.SuffixInts(row.Suffix)
			if !ok || len(num) != 1 {
				continue
			}
			localPorts[num[0]] = localPortEndpoint(
				walker.ToInt64(row.Value(0)), walker.ToString(row.Value(1)))
		}
	} else {
		d.logger.Debug("lldp: local port table unavailable", "target", target, "error", lerr.Error())
	}

	obs := make([]models.RawObservation, 0, len(remote))
	for _, row := range remote {
		// Remote table suffix is (timeMark, localPortNum, index).
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 3 {
			d.logger.Warn("lldp: unexpected remote row index", "target", target, "suffix", row.Suffix)
			continue
		}
		localPortNum := idx[1]

		sysName := walker.ToString(row.Value(0))
		portID := walker.ToString(row.Value(1))
		portDesc := walker.ToString(row.Value(2))
		if sysName == "" {
			continue
		}

		localPort, ok := localPorts[localPortNum]
		if !ok {
			localPort = models.IfIndexEndpoint(localPortNum)
		}

		obs = append(obs, models.RawObservation{
			LocalDevice:  localRef(target),
			LocalPort:    localPort,
			RemoteDevice: models.SysNameEndpoint(sysName),
			RemotePort:   models.LabelEndpoint(models.PreferredPortID(portID, portDesc)),
			Method:       models.MethodLLDP,
		})
	}
	return obs, nil
}

// localPortEndpoint interprets an lldpLocPortId value according to its
// subtype: "local" values are usually the numeric ifIndex, "interfaceName"
// values are the ifName, anything else is kept as an opaque label.
func localPortEndpoint(subtype int64, value string) models.Endpoint {
	if subtype == lldpPortIDSubtypeLocal {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return models.IfIndexEndpoint(n)
		}
	}
	if value != "" {
		return models.LabelEndpoint(value)
	}
	return models.Endpoint{}
}
