package layer

import (
	"fmt"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Upsample scales the spatial extent by an integer stride. A negative
// stride in the configuration downsamples instead.
type Upsample struct {
	Base
	Stride  int
	Reverse bool
	Scale   float64
}

// NewUpsample builds an upsample layer.
func NewUpsample(r *config.Reader, p Params) (*Upsample, error) {
	l := &Upsample{Base: newBase(layertype.Upsample, r, p)}
	l.Stride = r.Int("stride", 2)
	l.Scale = r.FloatQuiet("scale", 1)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := requireImage(r, p, "upsample"); err != nil {
		return nil, err
	}
	if l.Stride == 0 {
		return nil, fail(r, diag.KindInvalidOption, "stride", "stride must not be 0")
	}
	if l.Stride < 0 {
		l.Reverse = true
		l.Stride = -l.Stride
	}

	if l.Reverse {
		l.out = Shape{W: p.Input.W / l.Stride, H: p.Input.H / l.Stride, C: p.Input.C}
	} else {
		l.out = Shape{W: p.Input.W * l.Stride, H: p.Input.H * l.Stride, C: p.Input.C}
	}
	if !l.out.Valid() {
		return nil, fail(r, diag.KindShapeMismatch, "stride", "input %s cannot be downsampled by %d", p.Input, l.Stride)
	}
	l.geometry = Geometry{Size: 1, Stride: l.Stride, Dilation: 1}
	return l, nil
}

func (l *Upsample) Detail() string {
	if l.Reverse {
		return fmt.Sprintf("/%d", l.Stride)
	}
	return fmt.Sprintf("%dx", l.Stride)
}

// Reorg moves spatial blocks of stride x stride into channels, or back when
// reversed.
type Reorg struct {
	Base
	Stride  int
	Reverse bool
}

// NewReorg builds a reorg layer.
func NewReorg(r *config.Reader, p Params) (*Reorg, error) {
	l := &Reorg{Base: newBase(layertype.Reorg, r, p)}
	l.Stride = r.Int("stride", 1)
	l.Reverse = r.Bool("reverse", false)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := requireImage(r, p, "reorg"); err != nil {
		return nil, err
	}
	if l.Stride < 1 {
		return nil, fail(r, diag.KindInvalidOption, "stride", "stride must be at least 1, got %d", l.Stride)
	}

	s := l.Stride
	if l.Reverse {
		if p.Input.C%(s*s) != 0 {
			return nil, fail(r, diag.KindShapeMismatch, "stride", "%d input channels are not divisible by %d", p.Input.C, s*s)
		}
		l.out = Shape{W: p.Input.W * s, H: p.Input.H * s, C: p.Input.C / (s * s)}
	} else {
		if p.Input.W%s != 0 || p.Input.H%s != 0 {
			return nil, fail(r, diag.KindShapeMismatch, "stride", "input %s is not divisible by stride %d", p.Input, s)
		}
		l.out = Shape{W: p.Input.W / s, H: p.Input.H / s, C: p.Input.C * s * s}
	}
	l.geometry = Geometry{Size: 1, Stride: s, Dilation: 1}
	return l, nil
}

func (l *Reorg) Detail() string {
	if l.Reverse {
		return fmt.Sprintf("/%d reverse", l.Stride)
	}
	return fmt.Sprintf("/%d", l.Stride)
}
