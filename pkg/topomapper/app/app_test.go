package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/netfab/topomapper/pkg/topomapper/app"
	"github.com/netfab/topomapper/pkg/topomapper/config"
)

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

const twoDeviceInventory = `
devices:
  - id: 1
    hostname: core-sw.example.com
    ip: 10.0.0.1
  - id: 2
    hostname: edge1.example.com
    ip: 10.0.0.2
`

func TestRun_EmptyInventory(t *testing.T) {
	paths := config.Paths{
		Settings:  writeDir(t, nil),
		Inventory: writeDir(t, nil),
	}

	var buf bytes.Buffer
	a := app.New(app.Config{ConfigPaths: paths, OutputWriter: &buf}, nil)

	summary, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Devices != 0 || summary.Links != 0 {
		t.Errorf("Summary = %+v, want zero devices and links", summary)
	}
	if buf.Len() != 0 {
		t.Errorf("empty fleet wrote output: %q", buf.String())
	}
}

func TestRun_TargetFilterNoMatch(t *testing.T) {
	paths := config.Paths{
		Settings:  writeDir(t, nil),
		Inventory: writeDir(t, map[string]string{"devices.yaml": twoDeviceInventory}),
	}

	var buf bytes.Buffer
	a := app.New(app.Config{
		ConfigPaths:  paths,
		Targets:      []string{"no-such-device"},
		OutputWriter: &buf,
	}, nil)

	summary, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Devices != 0 {
		t.Errorf("Devices = %d, want 0 after filtering", summary.Devices)
	}
}

func TestRun_MissingInventoryDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "links.txt")
	paths := config.Paths{
		Settings: writeDir(t, map[string]string{
			"output.yaml": "output:\n  path: " + out + "\n",
		}),
		Inventory: filepath.Join(t.TempDir(), "nope"),
	}

	a := app.New(app.Config{ConfigPaths: paths}, nil)
	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing inventory directory")
	}

	// The sink still gets its explicit empty result.
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected empty output file to exist: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("output = %q, want empty", data)
	}
}
