package json_test

import (
	stdjson "encoding/json"
	"strings"
	"testing"

	jsonfmt "github.com/netfab/topomapper/format/json"
	"github.com/netfab/topomapper/models"
)

func sampleLink() models.Link {
	vlan := 10
	return models.Link{
		Local:  models.ConnectionEnd{Device: "edge1", PortName: "Gi0/1", IfIndex: 1},
		Remote: models.ConnectionEnd{Device: "core-sw", PortName: "Gi0/24", IfIndex: 24},
		VLAN:   &vlan,
		Method: models.MethodCDP,
	}
}

func TestFormat_Compact(t *testing.T) {
	f := jsonfmt.New(jsonfmt.Config{}, nil)

	data, err := f.Format(sampleLink())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Contains(string(data), "\n") {
		t.Errorf("compact output contains newline: %q", data)
	}

	var got models.Link
	if err := stdjson.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Local.Device != "edge1" || got.Remote.PortName != "Gi0/24" {
		t.Errorf("round-trip = %+v", got)
	}
	if got.VLAN == nil || *got.VLAN != 10 {
		t.Errorf("VLAN = %v", got.VLAN)
	}
	if got.Method != models.MethodCDP {
		t.Errorf("Method = %q", got.Method)
	}
}

func TestFormat_OmitsEmptyVLAN(t *testing.T) {
	f := jsonfmt.New(jsonfmt.Config{}, nil)

	link := sampleLink()
	link.VLAN = nil
	data, err := f.Format(link)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Contains(string(data), "vlan") {
		t.Errorf("nil VLAN should be omitted: %s", data)
	}
}

func TestFormat_PrettyPrint(t *testing.T) {
	f := jsonfmt.New(jsonfmt.Config{PrettyPrint: true}, nil)

	data, err := f.Format(sampleLink())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Errorf("pretty output not indented: %q", data)
	}
}

func TestFormat_CustomIndent(t *testing.T) {
	f := jsonfmt.New(jsonfmt.Config{PrettyPrint: true, Indent: "\t"}, nil)

	data, err := f.Format(sampleLink())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(string(data), "\n\t") {
		t.Errorf("tab indent missing: %q", data)
	}
}
