// Package cfgtext reads darknet-style .cfg network definitions.
//
// The format is line based:
//
//	[net]
//	width=416
//	# comment
//	; also a comment
//	[convolutional]
//	filters = 32
//
// All whitespace inside a line is discarded before it is interpreted, so
// "filters = 32" and "filters=32" are the same option. A section name may
// repeat (most networks contain many [convolutional] sections); option keys
// are unique within a section and a repeated key replaces the earlier value.
package cfgtext

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

// Loader is the .cfg implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new .cfg configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	return l.Parse(ctx, path, f)
}

// Parse reads sections from r. source is recorded on the returned Config and
// used in log messages.
func (l *Loader) Parse(ctx context.Context, source string, r io.Reader) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx).With("source", source)
	logger.Debug("cfg loader started.")

	cfg := &config.Config{Source: source}
	var current *config.Section

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strip(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if line[0] == '[' {
			if !strings.HasSuffix(line, "]") || len(line) < 3 {
				return nil, &diag.Error{Kind: diag.KindSyntax, Line: lineNo, Err: fmt.Errorf("%s: malformed section header %q", source, line)}
			}
			current = &config.Section{Name: line[1 : len(line)-1], Line: lineNo}
			cfg.Sections = append(cfg.Sections, current)
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			return nil, &diag.Error{Kind: diag.KindSyntax, Line: lineNo, Err: fmt.Errorf("%s: could not parse %q, expected key=value", source, line)}
		}
		if current == nil {
			return nil, &diag.Error{Kind: diag.KindSyntax, Line: lineNo, Err: fmt.Errorf("%s: option %q appears before any section", source, key)}
		}
		if current.Set(key, value, lineNo) {
			logger.Warn("Duplicate option, keeping the last value.", "section", current.Name, "line", lineNo, "option", key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", source, err)
	}

	logger.Debug("cfg loading complete.", "sections", len(cfg.Sections), "lines", lineNo)
	return cfg, nil
}

// strip removes every whitespace character from s.
func strip(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
