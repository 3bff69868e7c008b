package layer

import (
	"fmt"
	"math"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Convolutional is a 2D convolution with optional grouping, dilation and
// batch normalization.
type Convolutional struct {
	Base
	Filters        int
	Size           int
	StrideX        int
	StrideY        int
	Dilation       int
	Pad            int
	Groups         int
	Activation     Activation
	BatchNormalize bool
	Antialiasing   bool
}

// NewConvolutional builds a convolutional layer.
//
// With pad=1 the padding is size/2; otherwise padding= is used as given.
// Output extent per axis is (in + 2*pad - dilation*(size-1) - 1)/stride + 1.
func NewConvolutional(r *config.Reader, p Params) (*Convolutional, error) {
	l := &Convolutional{Base: newBase(layertype.Convolutional, r, p)}
	l.Filters = r.Int("filters", 1)
	l.Groups = r.IntQuiet("groups", 1)
	l.Size = r.Int("size", 1)
	stride := r.Int("stride", 1)
	l.StrideX = r.IntQuiet("stride_x", stride)
	l.StrideY = r.IntQuiet("stride_y", stride)
	l.Dilation = r.IntQuiet("dilation", 1)
	l.Antialiasing = r.Bool("antialiasing", false)
	l.Pad = r.IntQuiet("padding", 0)
	if r.Bool("pad", false) {
		l.Pad = l.Size / 2
	}
	l.Activation = activation(r, "logistic")
	l.BatchNormalize = r.Bool("batch_normalize", false)
	r.Accept("binary", "xnor", "bin_output", "share_index", "sway", "rotate", "stretch", "stretch_sway", "assisted_excitation", "cbn", "coordconv", "deform")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := requireImage(r, p, "convolutional"); err != nil {
		return nil, err
	}

	for _, c := range []struct {
		key string
		v   int
	}{
		{"filters", l.Filters}, {"size", l.Size}, {"stride", l.StrideX}, {"stride", l.StrideY}, {"dilation", l.Dilation}, {"groups", l.Groups},
	} {
		if c.v < 1 {
			return nil, fail(r, diag.KindInvalidOption, c.key, "%s must be at least 1, got %d", c.key, c.v)
		}
	}
	if l.Pad < 0 {
		return nil, fail(r, diag.KindInvalidOption, "padding", "padding must not be negative, got %d", l.Pad)
	}
	if p.Input.C%l.Groups != 0 {
		return nil, fail(r, diag.KindInvalidOption, "groups", "groups=%d does not divide %d input channels", l.Groups, p.Input.C)
	}

	l.out = Shape{
		W: convOut(p.Input.W, l.Pad, l.Dilation, l.Size, l.StrideX),
		H: convOut(p.Input.H, l.Pad, l.Dilation, l.Size, l.StrideY),
		C: l.Filters,
	}
	if !l.out.Valid() {
		return nil, fail(r, diag.KindShapeMismatch, "size", "input %s is too small for a %dx%d kernel, output would be %s", p.Input, l.Size, l.Size, l.out)
	}
	l.geometry = Geometry{Size: l.Size, Stride: stride, Dilation: l.Dilation}
	return l, nil
}

func convOut(in, pad, dilation, size, stride int) int {
	return (in+2*pad-dilation*(size-1)-1)/stride + 1
}

// WorkspaceNeed is the im2col buffer for one group.
func (l *Convolutional) WorkspaceNeed() uint64 {
	return mulSat(math.MaxUint64, uint64(l.out.W), uint64(l.out.H), uint64(l.Size), uint64(l.Size), uint64(l.in.C/l.Groups), floatSize)
}

// ParameterFootprint counts weights and biases, plus the batch-norm scales.
func (l *Convolutional) ParameterFootprint() uint64 {
	n := uint64(l.in.C/l.Groups)*uint64(l.Filters)*uint64(l.Size*l.Size) + uint64(l.Filters)
	if l.BatchNormalize {
		n += uint64(l.Filters)
	}
	return n
}

func (l *Convolutional) BFLOPs() float64 {
	return 2 * float64(l.Filters) * float64(l.Size*l.Size) * float64(l.in.C/l.Groups) * float64(l.out.W*l.out.H) / 1e9
}

func (l *Convolutional) Detail() string {
	s := fmt.Sprintf("%d %dx%d/%d", l.Filters, l.Size, l.Size, l.StrideX)
	if l.StrideX != l.StrideY {
		s = fmt.Sprintf("%d %dx%d/%dx%d", l.Filters, l.Size, l.Size, l.StrideX, l.StrideY)
	}
	if l.Dilation > 1 {
		s += fmt.Sprintf(" (%d)", l.Dilation)
	}
	if l.Groups > 1 {
		s += fmt.Sprintf(" g%d", l.Groups)
	}
	return s
}
