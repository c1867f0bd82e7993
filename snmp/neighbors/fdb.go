package neighbors

import (
	"context"

	"github.com/netfab/topomapper/models"
	"github.com/netfab/topomapper/snmp/walker"
)

// BridgeFDB walks the BRIDGE-MIB forwarding database: learned MAC → base
// bridge port, joined with the base-port → ifIndex table. Learned addresses
// that the fleet MAC index can attribute to a managed device's port become
// observations; addresses of unmanaged hosts are skipped.
func (d *Drivers) BridgeFDB(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error) {
	fdbRows, err := d.walker.Walk(ctx, target, cred, oidDot1dTpFdbPort)
	if err != nil {
		return nil, err
	}

	basePortIf, err := d.basePortIfIndex(ctx, target, cred)
	if err != nil {
		return nil, err
	}

	obs := make([]models.RawObservation, 0, len(fdbRows))
	for _, row := range fdbRows {
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 6 {
			d.logger.Warn("fdb: unexpected row index", "target", target, "suffix", row.Suffix)
			continue
		}
		mac := walker.MACFromSuffixInts(idx)
		basePort := walker.ToInt64(row.Value(0))
		if mac == "" || basePort <= 0 {
			continue
		}
		if o, ok := d.fdbObservation(target, mac, basePort, basePortIf, nil, models.MethodFDB); ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// QBridgeFDB is BridgeFDB over the VLAN-aware Q-BRIDGE-MIB table. The row
// index additionally carries the VLAN ID ahead of the MAC octets; it is
// extracted and attached to each observation.
func (d *Drivers) QBridgeFDB(ctx context.Context, target string, cred walker.Credential) ([]models.RawObservation, error) {
	fdbRows, err := d.walker.Walk(ctx, target, cred, oidDot1qTpFdbPort)
	if err != nil {
		return nil, err
	}

	basePortIf, err := d.basePortIfIndex(ctx, target, cred)
	if err != nil {
		return nil, err
	}

	obs := make([]models.RawObservation, 0, len(fdbRows))
	for _, row := range fdbRows {
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 7 {
			d.logger.Warn("qbridge: unexpected row index", "target", target, "suffix", row.Suffix)
			continue
		}
		vlan := int(idx[0])
		mac := walker.MACFromSuffixInts(idx[1:])
		basePort := walker.ToInt64(row.Value(0))
		if mac == "" || basePort <= 0 {
			continue
		}
		if o, ok := d.fdbObservation(target, mac, basePort, basePortIf, &vlan, models.MethodQBridge); ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// basePortIfIndex walks dot1dBasePortIfIndex into a base-port → ifIndex map.
// Both FDB variants need it; the pooled session makes the second walk cheap.
func (d *Drivers) basePortIfIndex(ctx context.Context, target string, cred walker.Credential) (map[int64]int64, error) {
	rows, err := d.walker.Walk(ctx, target, cred, oidDot1dBasePortIfIndex)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		idx, ok := walker.SuffixInts(row.Suffix)
		if !ok || len(idx) != 1 {
			continue
		}
		out[idx[0]] = walker.ToInt64(row.Value(0))
	}
	return out, nil
}

// fdbObservation resolves one learned MAC into an observation. It returns
// false when the MAC is not a managed port (host address) or the base port
// has no ifIndex mapping.
func (d *Drivers) fdbObservation(target, mac string, basePort int64, basePortIf map[int64]int64, vlan *int, method models.Method) (models.RawObservation, bool) {
	if d.index == nil {
		return models.RawObservation{}, false
	}
	ref, ok := d.index.MACPort(mac)
	if !ok {
		return models.RawObservation{}, false
	}

	localPort := models.Endpoint{}
	if ifIdx, ok := basePortIf[basePort]; ok && ifIdx > 0 {
		localPort = models.IfIndexEndpoint(ifIdx)
	} else {
		d.logger.Debug("fdb: base port without ifIndex mapping",
			"target", target, "base_port", basePort, "mac", mac)
		return models.RawObservation{}, false
	}

	return models.RawObservation{
		LocalDevice:  localRef(target),
		LocalPort:    localPort,
		RemoteDevice: deviceRef(ref.Device),
		RemotePort:   portRef(ref.Port),
		VLAN:         vlan,
		Method:       method,
	}, true
}
