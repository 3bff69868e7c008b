package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

func newSection(opts ...string) *Section {
	s := &Section{Name: "convolutional", Line: 10}
	for i := 0; i+1 < len(opts); i += 2 {
		s.Set(opts[i], opts[i+1], 11+i/2)
	}
	return s
}

func TestSectionSet(t *testing.T) {
	s := &Section{Name: "net", Line: 1}
	assert.False(t, s.Set("width", "416", 2))
	assert.True(t, s.Set("width", "608", 3))

	o, ok := s.Lookup("width")
	require.True(t, ok)
	assert.Equal(t, "608", o.Value)
	assert.Equal(t, 3, o.Line)
	assert.Len(t, s.Options, 1)
}

func TestReaderLookups(t *testing.T) {
	r := NewReader(context.Background(), newSection(
		"filters", "32",
		"size", "3.0",
		"momentum", "0.9",
		"activation", "leaky",
		"layers", "-1, 61,",
		"scales", ".1,.1",
	))

	assert.Equal(t, 32, r.Int("filters", 1))
	assert.Equal(t, 3, r.IntQuiet("size", 1))
	assert.Equal(t, 1, r.IntQuiet("stride", 1))
	assert.InDelta(t, 0.9, r.Float("momentum", 0), 1e-9)
	assert.InDelta(t, 0.5, r.FloatQuiet("decay", 0.5), 1e-9)
	assert.Equal(t, "leaky", r.String("activation", "logistic"))
	assert.Equal(t, "x", r.StringQuiet("missing", "x"))
	assert.False(t, r.Bool("batch_normalize", false))

	layers, ok := r.IntList("layers")
	require.True(t, ok)
	assert.Equal(t, []int{-1, 61}, layers)

	scales, ok := r.FloatList("scales")
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.1}, scales)

	_, ok = r.IntList("steps")
	assert.False(t, ok)

	assert.NoError(t, r.Err())
	assert.Empty(t, r.Unused())
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader(context.Background(), newSection("filters", "many", "size", "x"))

	assert.Equal(t, 1, r.Int("filters", 1))
	assert.Equal(t, 3, r.Int("size", 3))

	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.KindInvalidOption)
	assert.Contains(t, err.Error(), `filters="many"`)
	assert.Contains(t, err.Error(), "line 11")
}

func TestReaderUnused(t *testing.T) {
	r := NewReader(context.Background(), newSection("filters", "1", "typo_key", "2", "other", "3"))
	r.Int("filters", 1)
	assert.True(t, r.Has("other"))
	assert.Equal(t, []string{"typo_key"}, r.Unused())
}

func TestReaderWarnsOnDefault(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	r := NewReader(ctx, newSection())

	r.Int("filters", 1)
	r.IntQuiet("stride", 1)

	assert.Contains(t, buf.String(), "option=filters")
	assert.NotContains(t, buf.String(), "option=stride")
}

func TestReaderLine(t *testing.T) {
	r := NewReader(context.Background(), newSection("filters", "1", "size", "3"))
	assert.Equal(t, 12, r.Line("size"))
	assert.Equal(t, 10, r.Line("absent"))
}

func TestReaderAccept(t *testing.T) {
	r := NewReader(context.Background(), newSection("filters", "1", "xnor", "1", "typo", "2"))
	r.Accept("xnor", "never_present")
	r.Int("filters", 1)
	assert.Equal(t, []string{"typo"}, r.Unused())
}
