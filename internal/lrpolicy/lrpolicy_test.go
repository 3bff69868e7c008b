package lrpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/darkcfg/internal/diag"
)

func TestRoundTrip(t *testing.T) {
	for p := Policy(0); p < Max; p++ {
		name, err := ToString(p)
		require.NoError(t, err)

		got, err := FromString(name)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestFromString(t *testing.T) {
	got, err := FromString("  SGDR ")
	require.NoError(t, err)
	assert.Equal(t, SGDR, got)

	_, err = FromString("cosine")
	assert.ErrorIs(t, err, diag.KindInvalidOption)
}

func TestSentinel(t *testing.T) {
	_, err := ToString(Max)
	assert.ErrorIs(t, err, diag.KindInvalidEnum)

	_, err = ToString(Policy(-2))
	assert.ErrorIs(t, err, diag.KindInvalidEnum)

	assert.Equal(t, "Policy(8)", Max.String())
	assert.Equal(t, "steps", Steps.String())
}
