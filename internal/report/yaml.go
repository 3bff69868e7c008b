package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/network"
)

type document struct {
	Source   string            `yaml:"source"`
	Settings *network.Settings `yaml:"settings"`
	Layers   []layerDocument   `yaml:"layers"`
	Totals   totals            `yaml:"totals"`
}

type layerDocument struct {
	Index      int              `yaml:"index"`
	Type       string           `yaml:"type"`
	Detail     string           `yaml:"detail,omitempty"`
	Input      layer.Shape      `yaml:"input,flow"`
	Output     layer.Shape      `yaml:"output,flow"`
	Inputs     []int            `yaml:"inputs,omitempty,flow"`
	Consumers  []int            `yaml:"consumers,omitempty,flow"`
	Workspace  uint64           `yaml:"workspace,omitempty"`
	Parameters uint64           `yaml:"parameters,omitempty"`
	BFLOPs     float64          `yaml:"bflops,omitempty"`
	Aliases    bool             `yaml:"aliases_predecessor,omitempty"`
	Receptive  *layer.Receptive `yaml:"receptive,omitempty,flow"`
	Common     layer.Common     `yaml:"common"`
}

type totals struct {
	Layers     int         `yaml:"layers"`
	Workspace  uint64      `yaml:"workspace"`
	MaxInputs  int         `yaml:"max_inputs"`
	MaxOutputs int         `yaml:"max_outputs"`
	AvgOutputs int         `yaml:"avg_outputs"`
	BFLOPs     float64     `yaml:"bflops"`
	Parameters uint64      `yaml:"parameters"`
	Output     layer.Shape `yaml:"output,flow"`
	Outputs    []int       `yaml:"outputs,flow"`
}

// WriteYAML renders net as a YAML document.
func WriteYAML(w io.Writer, source string, net *network.Network) error {
	doc := document{
		Source:   source,
		Settings: net.Settings,
		Totals: totals{
			Layers:     net.Len(),
			Workspace:  net.WorkspaceSize,
			MaxInputs:  net.MaxInputs,
			MaxOutputs: net.MaxOutputs,
			AvgOutputs: net.AvgOutputs,
			BFLOPs:     net.BFLOPs,
			Parameters: net.Parameters(),
			Output:     net.OutputShape(),
			Outputs:    net.Outputs(),
		},
	}
	for _, l := range net.Layers() {
		consumers, err := net.Consumers(l.Index())
		if err != nil {
			return fmt.Errorf("failed to list consumers of layer %d: %w", l.Index(), err)
		}
		d := layerDocument{
			Index:      l.Index(),
			Type:       l.Type().String(),
			Detail:     l.Detail(),
			Input:      l.InputShape(),
			Output:     l.OutputShape(),
			Inputs:     l.Inputs(),
			Consumers:  consumers,
			Workspace:  l.WorkspaceNeed(),
			Parameters: l.ParameterFootprint(),
			BFLOPs:     l.BFLOPs(),
			Aliases:    l.AliasesPredecessor(),
			Common:     l.Common(),
		}
		if net.Settings.ShowReceptiveField {
			r := l.Receptive()
			d.Receptive = &r
		}
		doc.Layers = append(doc.Layers, d)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
