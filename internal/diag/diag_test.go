package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("with section and line", func(t *testing.T) {
		err := Newf(KindReference, "route", 12, "layer #3 references layer #5")
		assert.Equal(t, "[route] at line 12: ReferenceError: layer #3 references layer #5", err.Error())
	})

	t.Run("line only", func(t *testing.T) {
		err := &Error{Kind: KindSyntax, Line: 4, Err: errors.New("bad line")}
		assert.Equal(t, "line 4: SyntaxError: bad line", err.Error())
	})

	t.Run("no location", func(t *testing.T) {
		err := New(KindInvalidEnum, "value %d", 99)
		assert.Equal(t, "InvalidEnumValue: value 99", err.Error())
	})
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("building: %w", Newf(KindShapeMismatch, "shortcut", 7, "boom"))

	assert.ErrorIs(t, err, KindShapeMismatch)
	assert.NotErrorIs(t, err, KindReference)
	assert.Equal(t, KindShapeMismatch, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestAt(t *testing.T) {
	t.Run("fills missing location", func(t *testing.T) {
		err := At(New(KindUnknownLayerType, "unknown layer type %q", "foo"), "foo", 3, KindStructure)
		var d *Error
		require.ErrorAs(t, err, &d)
		assert.Equal(t, KindUnknownLayerType, d.Kind)
		assert.Equal(t, "foo", d.Section)
		assert.Equal(t, 3, d.Line)
	})

	t.Run("keeps existing location", func(t *testing.T) {
		orig := Newf(KindReference, "route", 9, "x")
		assert.Same(t, orig, At(orig, "other", 1, KindStructure))
	})

	t.Run("wraps plain errors with fallback kind", func(t *testing.T) {
		err := At(errors.New("not a number"), "convolutional", 5, KindInvalidOption)
		assert.ErrorIs(t, err, KindInvalidOption)
		assert.Contains(t, err.Error(), "[convolutional] at line 5")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, At(nil, "x", 1, KindStructure))
	})
}
