package layer

import (
	"fmt"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Connected is a fully connected layer producing a 1x1xOutput vector.
type Connected struct {
	Base
	Output         int
	Activation     Activation
	BatchNormalize bool
}

// NewConnected builds a connected layer over the flattened input.
func NewConnected(r *config.Reader, p Params) (*Connected, error) {
	l := &Connected{Base: newBase(layertype.Connected, r, p)}
	l.Output = r.Int("output", 1)
	l.Activation = activation(r, "logistic")
	l.BatchNormalize = r.Bool("batch_normalize", false)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if l.Output < 1 {
		return nil, fail(r, diag.KindInvalidOption, "output", "output must be at least 1, got %d", l.Output)
	}
	if p.Input.Elements() < 1 {
		return nil, fail(r, diag.KindShapeMismatch, "", "connected layer has no inputs, got %s", p.Input)
	}
	l.out = Shape{W: 1, H: 1, C: l.Output}
	return l, nil
}

// ParameterFootprint counts weights and biases, plus the batch-norm scales.
func (l *Connected) ParameterFootprint() uint64 {
	n := uint64(l.in.Elements())*uint64(l.Output) + uint64(l.Output)
	if l.BatchNormalize {
		n += uint64(l.Output)
	}
	return n
}

func (l *Connected) BFLOPs() float64 {
	return 2 * float64(l.in.Elements()) * float64(l.Output) / 1e9
}

func (l *Connected) Detail() string {
	return fmt.Sprintf("%d -> %d", l.in.Elements(), l.Output)
}
