package network

import (
	"github.com/specialistvlad/darkcfg/internal/dag"
	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Network is a compiled network definition. It is read-only once Build
// returns and safe for concurrent readers.
type Network struct {
	Settings *Settings

	// WorkspaceSize is the largest per-layer scratch need, in bytes.
	WorkspaceSize uint64
	// MaxInputs and MaxOutputs are the largest per-sample element counts
	// any layer reads or writes.
	MaxInputs  int
	MaxOutputs int
	// BFLOPs is the total forward cost in billions of floating point
	// operations.
	BFLOPs float64
	// AvgOutputs is the mean output size of layers with a 2D input.
	AvgOutputs int

	layers []layer.Node
	graph  *dag.Graph
}

// Len returns the number of layers.
func (n *Network) Len() int {
	return len(n.layers)
}

// Layers returns the layers in index order.
func (n *Network) Layers() []layer.Node {
	out := make([]layer.Node, len(n.layers))
	copy(out, n.layers)
	return out
}

// Layer returns the layer with the given 1-based index.
func (n *Network) Layer(index int) (layer.Node, bool) {
	if index < 1 || index > len(n.layers) {
		return nil, false
	}
	return n.layers[index-1], true
}

// OutputShape is the output shape of the last layer.
func (n *Network) OutputShape() layer.Shape {
	if len(n.layers) == 0 {
		return layer.Shape{}
	}
	return n.layers[len(n.layers)-1].OutputShape()
}

// Parameters is the total number of trainable values.
func (n *Network) Parameters() uint64 {
	var total uint64
	for _, l := range n.layers {
		total += l.ParameterFootprint()
	}
	return total
}

// Consumers returns the indices of the layers that read the output of the
// layer at index.
func (n *Network) Consumers(index int) ([]int, error) {
	return n.graph.Dependents(index)
}

// Producers returns the indices of the layers whose output the layer at
// index reads.
func (n *Network) Producers(index int) ([]int, error) {
	return n.graph.Dependencies(index)
}

// Outputs returns the layers nothing else reads, such as detection heads.
func (n *Network) Outputs() []int {
	return n.graph.Sinks()
}

// readsPredecessor reports whether a layer consumes the output of the layer
// right before it. Route only reads its listed layers and implicit reads
// nothing.
func readsPredecessor(l layer.Node) bool {
	switch l.Type() {
	case layertype.Route, layertype.Implicit:
		return false
	}
	return l.Index() > 1
}

// index builds the dependency graph of layers.
func index(layers []layer.Node) (*dag.Graph, error) {
	g := dag.New()
	for _, l := range layers {
		g.AddNode(l.Index())
	}
	for _, l := range layers {
		if readsPredecessor(l) {
			if err := g.AddEdge(l.Index()-1, l.Index()); err != nil {
				return nil, err
			}
		}
		for _, from := range l.Inputs() {
			if err := g.AddEdge(from, l.Index()); err != nil {
				return nil, err
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	return g, nil
}
