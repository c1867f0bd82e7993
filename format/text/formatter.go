// Package text implements the line-oriented output formatter for discovered
// links, one human-readable record per link:
//
//	edge1:Gi0/1 <-> core-sw:Gi0/24 (VLAN 10) via CDP
package text

import (
	"github.com/netfab/topomapper/models"
)

// TextFormatter renders links in their canonical text form. It is stateless
// and safe for concurrent use.
type TextFormatter struct{}

// New constructs a TextFormatter.
func New() *TextFormatter { return &TextFormatter{} }

// Format renders one link.
func (f *TextFormatter) Format(link models.Link) ([]byte, error) {
	return []byte(link.String()), nil
}
