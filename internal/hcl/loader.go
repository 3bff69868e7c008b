package hcl

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the HCL file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.Parse(ctx, path, src)
}

// Parse translates HCL source into the format-agnostic model. filename is
// used for diagnostics and recorded as the Config source.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx).With("source", filename)
	logger.Debug("HCL loader started.")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags, fmt.Sprintf("failed to parse HCL file %s", filename))
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL file %s: unexpected body type %T", filename, file.Body)
	}

	for _, attr := range body.Attributes {
		return nil, &diag.Error{
			Kind: diag.KindSyntax,
			Line: attr.SrcRange.Start.Line,
			Err:  fmt.Errorf("%s: attribute %q must be inside a section block", filename, attr.Name),
		}
	}

	cfg := &config.Config{Source: filename}
	for _, block := range body.Blocks {
		section, err := translateBlock(block)
		if err != nil {
			return nil, err
		}
		logger.Debug("Translated HCL block.", "section", section.Name, "line", section.Line, "options", len(section.Options))
		cfg.Sections = append(cfg.Sections, section)
	}

	logger.Debug("HCL loading complete.", "sections", len(cfg.Sections))
	return cfg, nil
}

// translateBlock converts one top-level block into a Section. Attributes are
// ordered by their position in the source so option order matches the file.
func translateBlock(block *hclsyntax.Block) (*config.Section, error) {
	line := block.TypeRange.Start.Line
	if len(block.Labels) > 0 {
		return nil, diag.Newf(diag.KindSyntax, block.Type, line, "section blocks take no labels, got %q", block.Labels)
	}
	if len(block.Body.Blocks) > 0 {
		nested := block.Body.Blocks[0]
		return nil, diag.Newf(diag.KindSyntax, block.Type, nested.TypeRange.Start.Line, "nested block %q is not allowed in a section", nested.Type)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(block.Body.Attributes))
	for _, attr := range block.Body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	section := &config.Section{Name: block.Type, Line: line}
	for _, attr := range attrs {
		attrLine := attr.SrcRange.Start.Line
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diag.Newf(diag.KindSyntax, block.Type, attrLine, "cannot evaluate %s: %s", attr.Name, diags.Error())
		}
		text, err := render(val)
		if err != nil {
			return nil, diag.Newf(diag.KindSyntax, block.Type, attrLine, "attribute %s: %v", attr.Name, err)
		}
		section.Set(attr.Name, text, attrLine)
	}
	return section, nil
}

// diagError converts HCL diagnostics into a syntax diagnostic located at the
// first error.
func diagError(diags hcl.Diagnostics, msg string) error {
	line := 0
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			line = d.Subject.Start.Line
			break
		}
	}
	return &diag.Error{Kind: diag.KindSyntax, Line: line, Err: fmt.Errorf("%s: %w", msg, diags)}
}
