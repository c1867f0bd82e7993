// Package json implements the JSON output formatter for discovered links.
//
// Pipeline position:
//
//	merge → format/json → transport/file
//
// The formatter converts a models.Link into a JSON byte slice; all json
// struct tags are declared on the model types themselves, so serialisation
// is a single json.Marshal call with optional indentation.
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Formatter interface
// ─────────────────────────────────────────────────────────────────────────────

// Formatter serialises one models.Link into a byte slice. Alternative
// formatters (plain text, graphviz …) implement the same interface without
// touching any other package.
type Formatter interface {
	Format(link models.Link) ([]byte, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config controls JSONFormatter behaviour.
type Config struct {
	// PrettyPrint emits indented, human-readable JSON when true.
	PrettyPrint bool

	// Indent is the indent string used when PrettyPrint=true.
	// Defaults to two spaces when empty and PrettyPrint=true.
	Indent string
}

// ─────────────────────────────────────────────────────────────────────────────
// JSONFormatter
// ─────────────────────────────────────────────────────────────────────────────

// JSONFormatter implements Formatter using encoding/json. It is safe for
// concurrent use; all fields are immutable after construction.
type JSONFormatter struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a JSONFormatter. If logger is nil, a no-op logger is
// substituted.
func New(cfg Config, logger *slog.Logger) *JSONFormatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.PrettyPrint && cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &JSONFormatter{cfg: cfg, logger: logger}
}

// Format serialises link to JSON:
//
//	{"local":{"device":"edge1","port":"Gi0/1"},
//	 "remote":{"device":"core-sw","port":"Gi0/24"},
//	 "vlan":10,"method":"CDP"}
func (f *JSONFormatter) Format(link models.Link) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	if f.cfg.PrettyPrint {
		data, err = json.MarshalIndent(link, "", f.cfg.Indent)
	} else {
		data, err = json.Marshal(link)
	}

	if err != nil {
		f.logger.Error("format/json: marshal failed",
			"local", link.Local.Device,
			"remote", link.Remote.Device,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("format/json: marshal: %w", err)
	}
	return data, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

// noopWriter discards all log output when no logger is provided.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
