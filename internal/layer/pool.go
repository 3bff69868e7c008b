package layer

import (
	"fmt"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Pool is a sliding-window max or average pool. MaxPool and LocalAvgPool
// share it and differ only in their type tag.
type Pool struct {
	Base
	Size        int
	StrideX     int
	StrideY     int
	Padding     int
	Depth       bool
	OutChannels int
}

// NewMaxPool builds a maxpool layer.
func NewMaxPool(r *config.Reader, p Params) (*Pool, error) {
	return newPool(layertype.MaxPool, r, p)
}

// NewLocalAvgPool builds a local_avgpool layer.
func NewLocalAvgPool(r *config.Reader, p Params) (*Pool, error) {
	return newPool(layertype.LocalAvgPool, r, p)
}

// newPool reads the pooling options. size defaults to the stride and padding
// to size-1; output extent per axis is (in + padding - size)/stride + 1.
// maxpool_depth pools across channels instead, keeping the spatial size.
func newPool(t layertype.LayerType, r *config.Reader, p Params) (*Pool, error) {
	l := &Pool{Base: newBase(t, r, p)}
	stride := r.Int("stride", 1)
	l.StrideX = r.IntQuiet("stride_x", stride)
	l.StrideY = r.IntQuiet("stride_y", stride)
	l.Size = r.Int("size", stride)
	l.Padding = r.IntQuiet("padding", l.Size-1)
	l.Depth = r.Bool("maxpool_depth", false)
	l.OutChannels = r.IntQuiet("out_channels", 1)
	r.Accept("antialiasing")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := requireImage(r, p, t.String()); err != nil {
		return nil, err
	}
	if l.Size < 1 || l.StrideX < 1 || l.StrideY < 1 {
		return nil, fail(r, diag.KindInvalidOption, "size", "size and stride must be at least 1, got size=%d stride=%dx%d", l.Size, l.StrideX, l.StrideY)
	}

	if l.Depth {
		if l.OutChannels < 1 {
			return nil, fail(r, diag.KindInvalidOption, "out_channels", "out_channels must be at least 1, got %d", l.OutChannels)
		}
		l.out = Shape{W: p.Input.W, H: p.Input.H, C: l.OutChannels}
	} else {
		l.out = Shape{
			W: (p.Input.W+l.Padding-l.Size)/l.StrideX + 1,
			H: (p.Input.H+l.Padding-l.Size)/l.StrideY + 1,
			C: p.Input.C,
		}
	}
	if !l.out.Valid() {
		return nil, fail(r, diag.KindShapeMismatch, "size", "input %s is too small for a %dx%d window, output would be %s", p.Input, l.Size, l.Size, l.out)
	}
	l.geometry = Geometry{Size: l.Size, Stride: stride, Dilation: 1}
	return l, nil
}

func (l *Pool) BFLOPs() float64 {
	return float64(l.Size*l.Size) * float64(l.in.C) * float64(l.out.W*l.out.H) / 1e9
}

func (l *Pool) Detail() string {
	if l.StrideX != l.StrideY {
		return fmt.Sprintf("%dx%d/%dx%d", l.Size, l.Size, l.StrideX, l.StrideY)
	}
	return fmt.Sprintf("%dx%d/%d", l.Size, l.Size, l.StrideX)
}

// AvgPool averages each channel over the whole spatial extent.
type AvgPool struct {
	Base
}

// NewAvgPool builds a global average pool with a 1x1xC output.
func NewAvgPool(r *config.Reader, p Params) (*AvgPool, error) {
	l := &AvgPool{Base: newBase(layertype.AvgPool, r, p)}
	if err := requireImage(r, p, "avgpool"); err != nil {
		return nil, err
	}
	l.out = Shape{W: 1, H: 1, C: p.Input.C}
	return l, nil
}
