package layer

import (
	"strconv"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

// resolveRefs reads the comma separated layer references stored under key
// and converts them to 1-based indices of already built layers.
//
// A negative value counts back from the current layer (-1 is the previous
// one). A non-negative value is an absolute layer number counted from 0, the
// way configuration files number layers.
func resolveRefs(r *config.Reader, p Params, key string) ([]int, error) {
	if !r.Has(key) {
		return nil, fail(r, diag.KindReference, "", "layer %d must specify input layers with %s=", p.Index, key)
	}
	raw := r.StringQuiet(key, "")

	var out []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fail(r, diag.KindReference, key, "layer %d has malformed reference %q in %s=", p.Index, field, key)
		}
		target := v + 1
		if v < 0 {
			target = p.Index + v
		}
		if target < 1 || target >= p.Index {
			return nil, fail(r, diag.KindReference, key, "layer %d references %s=%s (layer %d), which is not an earlier layer", p.Index, key, field, target)
		}
		out = append(out, target)
	}
	if len(out) == 0 {
		return nil, fail(r, diag.KindReference, key, "layer %d must specify input layers with %s=", p.Index, key)
	}
	return out, nil
}

// resolveRef is resolveRefs for layers that take exactly one reference.
func resolveRef(r *config.Reader, p Params, key string) (Node, error) {
	refs, err := resolveRefs(r, p, key)
	if err != nil {
		return nil, err
	}
	if len(refs) != 1 {
		return nil, fail(r, diag.KindReference, key, "layer %d takes exactly one reference in %s=, got %d", p.Index, key, len(refs))
	}
	n, ok := p.Layer(refs[0])
	if !ok {
		return nil, fail(r, diag.KindReference, key, "layer %d references layer %d, which has not been built", p.Index, refs[0])
	}
	return n, nil
}
