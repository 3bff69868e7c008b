package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/network"
)

// Format selects the report renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatYAML}
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q, expected one of %v", s, Formats())
}

// Write renders net to w in format f. source names the configuration the
// network was compiled from.
func Write(w io.Writer, f Format, source string, net *network.Network) error {
	switch f {
	case FormatTable:
		return NewTable(w).Write(source, net)
	case FormatYAML:
		return WriteYAML(w, source, net)
	}
	return fmt.Errorf("unknown report format %q", f)
}
