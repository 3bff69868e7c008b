package report

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/darkcfg/internal/cfgtext"
	"github.com/specialistvlad/darkcfg/internal/network"
)

const small = `[net]
width=32
height=32
channels=3
batch=8

[convolutional]
filters=8
size=3
stride=1
pad=1
activation=leaky

[maxpool]
size=2
stride=2

[convolutional]
filters=4
size=1
stride=1
activation=linear

[route]
layers=-1,-2

[avgpool]
`

func compile(t *testing.T, src string, opts ...network.Option) *network.Network {
	t.Helper()
	cfg, err := cfgtext.NewLoader().Parse(context.Background(), "small.cfg", strings.NewReader(src))
	require.NoError(t, err)
	net, err := network.Build(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return net
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in   string
		want Format
	}{
		{"table", FormatTable},
		{"YAML", FormatYAML},
		{" yaml ", FormatYAML},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseFormat(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
		})
	}

	_, err := ParseFormat("json")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestTable(t *testing.T) {
	net := compile(t, small)

	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf).SetColor(false).Write("small.cfg", net))
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	// Title, column header, one row per layer, totals.
	require.Len(t, lines, 2+net.Len()+1)
	assert.Equal(t, "small.cfg: 5 layers, input 32 x 32 x 3, batch 8", lines[0])
	assert.Contains(t, lines[1], "layer")
	assert.NotContains(t, lines[1], "receptive")

	assert.Contains(t, lines[2], "conv")
	assert.Contains(t, lines[2], "8 3x3/1")
	assert.Contains(t, lines[2], "32 x 32 x 3")
	assert.Contains(t, lines[2], "32 x 32 x 8")
	assert.Contains(t, lines[2], " BF")
	assert.Contains(t, lines[3], "max")
	assert.Contains(t, lines[3], "16 x 16 x 8")
	assert.Contains(t, lines[5], "route")
	assert.Contains(t, lines[6], "avg")
	assert.Contains(t, lines[6], "16 x 16 x 12")
	assert.Contains(t, lines[6], "1 x 1 x 12")

	total := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(total, "Total BFLOPS "))
	assert.Contains(t, total, "outputs [5]")
	assert.NotContains(t, out, "\x1b[")
}

func TestTableReceptiveField(t *testing.T) {
	net := compile(t, small, network.WithReceptiveField(true))

	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf).SetColor(false).Write("small.cfg", net))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Contains(t, lines[1], "receptive")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "3 x 3"))
}

func TestTableColor(t *testing.T) {
	net := compile(t, small)

	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf).SetColor(true).Write("small.cfg", net))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestTableFrozenRowsStayAligned(t *testing.T) {
	src := strings.Replace(small, "[convolutional]\nfilters=4", "[convolutional]\nstopbackward=1\nfilters=4", 1)
	net := compile(t, src, network.WithTrain(true))

	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf).SetColor(true).Write("small.cfg", net))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	rows := lines[1 : 2+net.Len()]

	// Layers 1 and 2 sit before the stopbackward layer.
	assert.True(t, strings.HasPrefix(rows[1], "\x1b["))
	assert.True(t, strings.HasPrefix(rows[2], "\x1b["))
	assert.False(t, strings.HasPrefix(rows[3], "\x1b["))

	ansi := regexp.MustCompile("\x1b\\[[0-9;]*m")
	width := len(rows[0])
	for i, row := range rows {
		assert.Len(t, ansi.ReplaceAllString(row, ""), width, "row %d", i)
	}
}

func TestYAML(t *testing.T) {
	net := compile(t, small)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, "small.cfg", net))

	var doc struct {
		Source   string `yaml:"source"`
		Settings struct {
			Width  int    `yaml:"width"`
			Batch  int    `yaml:"batch"`
			Policy string `yaml:"policy"`
		} `yaml:"settings"`
		Layers []struct {
			Index     int    `yaml:"index"`
			Type      string `yaml:"type"`
			Inputs    []int  `yaml:"inputs"`
			Consumers []int  `yaml:"consumers"`
			Output    struct {
				W, H, C int
			} `yaml:"output"`
			Receptive map[string]int `yaml:"receptive"`
		} `yaml:"layers"`
		Totals struct {
			Layers  int   `yaml:"layers"`
			Outputs []int `yaml:"outputs"`
		} `yaml:"totals"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "small.cfg", doc.Source)
	assert.Equal(t, 32, doc.Settings.Width)
	assert.Equal(t, 8, doc.Settings.Batch)
	assert.Equal(t, "constant", doc.Settings.Policy)

	require.Len(t, doc.Layers, 5)
	assert.Equal(t, "convolutional", doc.Layers[0].Type)
	assert.Equal(t, []int{2}, doc.Layers[0].Consumers)
	assert.Equal(t, []int{3, 4}, doc.Layers[1].Consumers)
	assert.Equal(t, "route", doc.Layers[3].Type)
	assert.Equal(t, []int{3, 2}, doc.Layers[3].Inputs)
	assert.Equal(t, 12, doc.Layers[3].Output.C)
	assert.Nil(t, doc.Layers[0].Receptive)

	assert.Equal(t, 5, doc.Totals.Layers)
	assert.Equal(t, []int{5}, doc.Totals.Outputs)
}

func TestWriteDispatch(t *testing.T) {
	net := compile(t, small)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, "small.cfg", net))
	assert.True(t, strings.HasPrefix(buf.String(), "source: small.cfg\n"))

	assert.Error(t, Write(&buf, Format("xml"), "small.cfg", net))
}
