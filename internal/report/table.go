package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/layertype"
	"github.com/specialistvlad/darkcfg/internal/network"
)

// shortNames are the abbreviations darknet prints in its layer table.
var shortNames = map[layertype.LayerType]string{
	layertype.Convolutional: "conv",
	layertype.MaxPool:       "max",
	layertype.LocalAvgPool:  "avg",
	layertype.AvgPool:       "avg",
	layertype.Connected:     "connected",
	layertype.ScaleChannels: "scale",
	layertype.BatchNorm:     "bn",
}

// Table renders the layer table. Colours follow fatih/color's terminal
// detection unless overridden with SetColor.
type Table struct {
	w      io.Writer
	header *color.Color
	frozen *color.Color
	total  *color.Color
}

// NewTable creates a Table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{
		w:      w,
		header: color.New(color.FgCyan, color.Bold),
		frozen: color.New(color.FgHiBlack),
		total:  color.New(color.FgGreen, color.Bold),
	}
}

// SetColor forces colour output on or off.
func (t *Table) SetColor(enabled bool) *Table {
	for _, c := range []*color.Color{t.header, t.frozen, t.total} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Write prints one row per layer followed by the network totals.
func (t *Table) Write(source string, net *network.Network) error {
	s := net.Settings
	receptive := s.ShowReceptiveField

	if _, err := t.header.Fprintf(t.w, "%s: %d layers, input %s, batch %d\n", source, net.Len(), s.InputShape(), s.Batch); err != nil {
		return err
	}

	// Rows are aligned first and coloured afterwards; escape codes inside
	// tabwriter cells would count toward the column widths.
	var aligned bytes.Buffer
	tw := tabwriter.NewWriter(&aligned, 0, 0, 2, ' ', tabwriter.AlignRight)
	cols := []string{"layer", "type", "detail", "input", "", "output", "BFLOPs"}
	if receptive {
		cols = append(cols, "receptive")
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")

	layers := net.Layers()
	for _, l := range layers {
		row := []string{
			fmt.Sprint(l.Index()),
			shortName(l.Type()),
			l.Detail(),
			shape(l.InputShape()),
			"->",
			shape(l.OutputShape()),
			bflops(l.BFLOPs()),
		}
		if receptive {
			r := l.Receptive()
			row = append(row, fmt.Sprintf("%d x %d", r.W, r.H))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for i, line := range strings.SplitAfter(aligned.String(), "\n") {
		if line == "" {
			continue
		}
		var err error
		if i > 0 && layers[i-1].Common().Frozen {
			_, err = t.frozen.Fprint(t.w, strings.TrimSuffix(line, "\n"))
			if err == nil {
				_, err = io.WriteString(t.w, "\n")
			}
		} else {
			_, err = io.WriteString(t.w, line)
		}
		if err != nil {
			return err
		}
	}

	outputs := make([]string, 0)
	for _, i := range net.Outputs() {
		outputs = append(outputs, fmt.Sprint(i))
	}
	_, err := t.total.Fprintf(t.w, "Total BFLOPS %.3f, parameters %s, workspace %s, max inputs %s, max outputs %s, avg outputs %s, outputs [%s]\n",
		net.BFLOPs,
		humanize.Comma(int64(net.Parameters())),
		humanize.IBytes(net.WorkspaceSize),
		humanize.Comma(int64(net.MaxInputs)),
		humanize.Comma(int64(net.MaxOutputs)),
		humanize.Comma(int64(net.AvgOutputs)),
		strings.Join(outputs, " "),
	)
	return err
}

func shortName(t layertype.LayerType) string {
	if s, ok := shortNames[t]; ok {
		return s
	}
	return t.String()
}

func shape(s layer.Shape) string {
	return fmt.Sprintf("%d x %d x %d", s.W, s.H, s.C)
}

func bflops(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.3f BF", v)
}
