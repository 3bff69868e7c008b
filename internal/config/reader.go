package config

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

// Reader gives typed access to the options of one section.
//
// The plain lookups (Int, Float, String) log a warning when the option is
// absent and the default is used; the Quiet variants default silently.
// A malformed value is never defaulted: the first one encountered becomes the
// Reader's sticky error, reported by Err, and later lookups return their
// defaults. Every lookup marks the key as used so Unused can list the options
// nobody asked for.
type Reader struct {
	section *Section
	logger  *slog.Logger
	used    map[string]bool
	err     error
}

// NewReader creates a Reader over s. The logger is taken from ctx.
func NewReader(ctx context.Context, s *Section) *Reader {
	return &Reader{
		section: s,
		logger:  ctxlog.FromContext(ctx),
		used:    make(map[string]bool),
	}
}

// Section returns the section being read.
func (r *Reader) Section() *Section {
	return r.section
}

// Err returns the first malformed-value error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Fail records err as the sticky error unless one is already set. Creators
// use it for validation failures that are not about a single option's syntax.
func (r *Reader) Fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Has reports whether key is present, and marks it as used.
func (r *Reader) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

// Accept marks keys as used without reading them. Layers use it for options
// that only matter to the execution engine.
func (r *Reader) Accept(keys ...string) {
	for _, k := range keys {
		r.used[k] = true
	}
}

// Unused lists, in file order, the options no lookup has touched.
func (r *Reader) Unused() []string {
	var out []string
	for _, o := range r.section.Options {
		if !r.used[o.Key] {
			out = append(out, o.Key)
		}
	}
	return out
}

// String returns the value of key or def, warning when defaulted.
func (r *Reader) String(key, def string) string {
	o, ok := r.lookup(key)
	if !ok {
		r.defaulted(key, def)
		return def
	}
	return o.Value
}

// StringQuiet returns the value of key or def.
func (r *Reader) StringQuiet(key, def string) string {
	if o, ok := r.lookup(key); ok {
		return o.Value
	}
	return def
}

// Int returns key as an integer or def, warning when defaulted.
func (r *Reader) Int(key string, def int) int {
	o, ok := r.lookup(key)
	if !ok {
		r.defaulted(key, def)
		return def
	}
	return r.parseInt(o, def)
}

// IntQuiet returns key as an integer or def.
func (r *Reader) IntQuiet(key string, def int) int {
	o, ok := r.lookup(key)
	if !ok {
		return def
	}
	return r.parseInt(o, def)
}

// Float returns key as a float or def, warning when defaulted.
func (r *Reader) Float(key string, def float64) float64 {
	o, ok := r.lookup(key)
	if !ok {
		r.defaulted(key, def)
		return def
	}
	return r.parseFloat(o, def)
}

// FloatQuiet returns key as a float or def.
func (r *Reader) FloatQuiet(key string, def float64) float64 {
	o, ok := r.lookup(key)
	if !ok {
		return def
	}
	return r.parseFloat(o, def)
}

// Bool returns key as a darknet-style flag (non-zero integer is true).
func (r *Reader) Bool(key string, def bool) bool {
	d := 0
	if def {
		d = 1
	}
	return r.IntQuiet(key, d) != 0
}

// IntList returns the comma separated integers stored under key. The second
// result is false when the key is absent.
func (r *Reader) IntList(key string) ([]int, bool) {
	o, ok := r.lookup(key)
	if !ok {
		return nil, false
	}
	fields := splitList(o.Value)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		out = append(out, r.parseInt(Option{Key: o.Key, Value: f, Line: o.Line}, 0))
	}
	return out, true
}

// FloatList returns the comma separated floats stored under key. The second
// result is false when the key is absent.
func (r *Reader) FloatList(key string) ([]float64, bool) {
	o, ok := r.lookup(key)
	if !ok {
		return nil, false
	}
	fields := splitList(o.Value)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		out = append(out, r.parseFloat(Option{Key: o.Key, Value: f, Line: o.Line}, 0))
	}
	return out, true
}

// Line returns the line of key, or the section's line when key is absent.
func (r *Reader) Line(key string) int {
	if o, ok := r.section.Lookup(key); ok && o.Line > 0 {
		return o.Line
	}
	return r.section.Line
}

func (r *Reader) lookup(key string) (Option, bool) {
	r.used[key] = true
	return r.section.Lookup(key)
}

func (r *Reader) defaulted(key string, def any) {
	r.logger.Warn("Option missing, using default.", "section", r.section.Name, "line", r.section.Line, "option", key, "default", def)
}

func (r *Reader) parseInt(o Option, def int) int {
	v := strings.TrimSpace(o.Value)
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		return int(f)
	}
	r.Fail(diag.Newf(diag.KindInvalidOption, r.section.Name, o.Line, "option %s=%q is not an integer", o.Key, o.Value))
	return def
}

func (r *Reader) parseFloat(o Option, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
	if err != nil {
		r.Fail(diag.Newf(diag.KindInvalidOption, r.section.Name, o.Line, "option %s=%q is not a number", o.Key, o.Value))
		return def
	}
	return f
}

// splitList splits a comma separated value, dropping empty fields so a
// trailing comma is tolerated.
func splitList(v string) []string {
	var out []string
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
