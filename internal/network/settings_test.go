package network

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/lrpolicy"
)

// buildNet compiles a [net] section followed by a single empty layer.
func buildNet(t *testing.T, net string, opts ...Option) (*Settings, error) {
	t.Helper()
	n, err := Build(context.Background(), parse(t, "[net]\n"+net+"[empty]\n"), opts...)
	if err != nil {
		return nil, err
	}
	return n.Settings, nil
}

func TestSettingsDefaults(t *testing.T) {
	s, err := buildNet(t, "width=8\nheight=6\nchannels=3\n")
	require.NoError(t, err)

	assert.Equal(t, layer.Shape{W: 8, H: 6, C: 3}, s.InputShape())
	assert.Equal(t, 144, s.Inputs)
	assert.Equal(t, NoGPU, s.GPUIndex)
	assert.Equal(t, 1, s.Batch)
	assert.Equal(t, 1, s.Subdivisions)
	assert.Equal(t, 1, s.TimeSteps)
	assert.Equal(t, lrpolicy.Constant, s.Policy)
	assert.InDelta(t, 0.001, s.LearningRate, 1e-12)
	assert.InDelta(t, 0.9, s.Momentum, 1e-12)
	assert.Equal(t, uint64(1024*1024*1024), s.WorkspaceSizeLimit)
	assert.True(t, s.Augmentation.Flip)
	assert.Equal(t, 16, s.Augmentation.MaxCrop)
	assert.False(t, s.Train)
	assert.False(t, s.ShowReceptiveField)
}

func TestSettingsBatch(t *testing.T) {
	const net = "width=8\nheight=8\nchannels=3\nbatch=64\nsubdivisions=16\n"
	testCases := []struct {
		name      string
		extra     string
		opts      []Option
		batch     int
		timeSteps int
	}{
		{"mini batch", "", nil, 4, 1},
		{"time steps multiply", "time_steps=2\n", nil, 8, 2},
		{"time steps override", "time_steps=2\n", []Option{WithTimeSteps(3)}, 12, 3},
		{"batch override", "", []Option{WithBatch(1)}, 1, 1},
		{"batch at least time steps", "", []Option{WithBatch(1), WithTimeSteps(5)}, 5, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := buildNet(t, net+tc.extra, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.batch, s.Batch)
			assert.Equal(t, tc.timeSteps, s.TimeSteps)
			assert.Equal(t, 16, s.Subdivisions)
		})
	}
}

func TestSettingsBuildOptions(t *testing.T) {
	s, err := buildNet(t, "width=8\nheight=8\nchannels=3\n", WithGPU(0), WithTrain(true), WithReceptiveField(true))
	require.NoError(t, err)
	assert.Equal(t, 0, s.GPUIndex)
	assert.True(t, s.Train)
	assert.True(t, s.ShowReceptiveField)
}

func TestSettingsPolicy(t *testing.T) {
	const net = "width=8\nheight=8\nchannels=3\n"

	t.Run("steps", func(t *testing.T) {
		s, err := buildNet(t, net+"policy=steps\nsteps=100,200\nscales=.1,.1\n")
		require.NoError(t, err)
		assert.Equal(t, lrpolicy.Steps, s.Policy)
		assert.Equal(t, []int{100, 200}, s.Steps)
		assert.Equal(t, []float64{0.1, 0.1}, s.Scales)
		assert.Equal(t, []float64{1, 1}, s.SeqScales)
	})

	t.Run("sgdr without steps", func(t *testing.T) {
		s, err := buildNet(t, net+"policy=sgdr\nmax_batches=500\n")
		require.NoError(t, err)
		assert.Equal(t, lrpolicy.SGDR, s.Policy)
		assert.Empty(t, s.Steps)
		assert.Equal(t, 500, s.SGDRCycle)
	})

	t.Run("step", func(t *testing.T) {
		s, err := buildNet(t, net+"policy=STEP\nstep=1000\nscale=.5\n")
		require.NoError(t, err)
		assert.Equal(t, lrpolicy.Step, s.Policy)
		assert.Equal(t, 1000, s.Step)
		assert.InDelta(t, 0.5, s.Scale, 1e-12)
	})

	t.Run("sigmoid", func(t *testing.T) {
		s, err := buildNet(t, net+"policy=sigmoid\ngamma=2\nstep=10\n")
		require.NoError(t, err)
		assert.InDelta(t, 2.0, s.Gamma, 1e-12)
		assert.Equal(t, 10, s.Step)
	})

	errorCases := []struct {
		name string
		body string
		line int
	}{
		{"unknown policy", "policy=cosine\n", 5},
		{"steps without scales", "policy=steps\nsteps=100\n", 5},
		{"length mismatch", "policy=steps\nsteps=100,200\nscales=.1\n", 6},
		{"seq_scales mismatch", "policy=steps\nsteps=100\nscales=.1\nseq_scales=1,1\n", 6},
		{"malformed steps", "policy=steps\nsteps=100,soon\nscales=.1,.1\n", 6},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildNet(t, net+tc.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, diag.KindInvalidOption)

			var d *diag.Error
			require.ErrorAs(t, err, &d)
			assert.Equal(t, tc.line, d.Line)
		})
	}
}

func TestSettingsInput(t *testing.T) {
	t.Run("inputs alone", func(t *testing.T) {
		n, err := Build(context.Background(), parse(t, "[net]\ninputs=10\n[connected]\noutput=2\nactivation=linear\n"))
		require.NoError(t, err)
		assert.Equal(t, layer.Shape{W: 1, H: 1, C: 10}, n.Settings.InputShape())
		assert.Equal(t, layer.Shape{W: 1, H: 1, C: 2}, n.OutputShape())
	})

	t.Run("no input", func(t *testing.T) {
		_, err := buildNet(t, "width=8\nheight=8\n")
		assert.ErrorIs(t, err, diag.KindInvalidOption)
	})

	t.Run("long names win over short ones", func(t *testing.T) {
		s, err := buildNet(t, "w=4\nwidth=8\nh=4\nheight=6\nc=1\nchannels=3\n")
		require.NoError(t, err)
		assert.Equal(t, layer.Shape{W: 8, H: 6, C: 3}, s.InputShape())
		assert.Equal(t, 144, s.Inputs)
	})

	t.Run("overflowing input", func(t *testing.T) {
		_, err := buildNet(t, "width=2000000000\nheight=2000000000\nchannels=2000000000\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, diag.KindInvalidOption)
		assert.Contains(t, err.Error(), "overflows")
	})

	t.Run("bad subdivisions", func(t *testing.T) {
		_, err := buildNet(t, "width=8\nheight=8\nchannels=3\nsubdivisions=0\n")
		assert.ErrorIs(t, err, diag.KindInvalidOption)
	})
}

func TestSettingsAugmentation(t *testing.T) {
	s, err := buildNet(t, "width=8\nheight=8\nchannels=3\nmosaic=1\ncutmix=1\nflip=0\nhue=.1\nangle=5\n")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Augmentation.Mixup)
	assert.False(t, s.Augmentation.Flip)
	assert.InDelta(t, 0.1, s.Augmentation.Hue, 1e-12)
	assert.InDelta(t, 5.0, s.Augmentation.Angle, 1e-12)
}
