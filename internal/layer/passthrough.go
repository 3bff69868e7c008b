package layer

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// ImplicitMode says how an implicit tensor is combined by the layer that
// consumes it.
type ImplicitMode int

const (
	ImplicitAdd ImplicitMode = iota
	ImplicitMul
)

func (m ImplicitMode) String() string {
	if m == ImplicitMul {
		return "mul"
	}
	return "add"
}

// Implicit is a learned 1x1xfilters tensor that does not depend on its
// input. It has no back-reference; consumers reach it through route or
// shortcut layers.
type Implicit struct {
	Base
	Filters int
	Mode    ImplicitMode
}

// NewImplicit builds an implicit layer. The mode comes from the section
// name: [implicit_mul] multiplies, [implicit] and [implicit_add] add.
func NewImplicit(r *config.Reader, p Params) (*Implicit, error) {
	l := &Implicit{Base: newBase(layertype.Implicit, r, p)}
	l.Filters = r.Int("filters", 1)
	r.Accept("mean", "std", "atoms")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if l.Filters < 1 {
		return nil, fail(r, diag.KindInvalidOption, "filters", "filters must be at least 1, got %d", l.Filters)
	}
	if strings.EqualFold(strings.TrimSpace(r.Section().Name), "implicit_mul") {
		l.Mode = ImplicitMul
	}
	l.out = Shape{W: 1, H: 1, C: l.Filters}
	return l, nil
}

func (l *Implicit) ParameterFootprint() uint64 {
	return uint64(l.Filters)
}

func (l *Implicit) Detail() string {
	return fmt.Sprintf("%d %s", l.Filters, l.Mode)
}

// Dropout zeroes a random fraction of its input during training. It shares
// its predecessor's buffers.
type Dropout struct {
	Base
	Probability float64
	DropBlock   bool
}

// NewDropout builds a dropout layer.
func NewDropout(r *config.Reader, p Params) (*Dropout, error) {
	l := &Dropout{Base: newBase(layertype.Dropout, r, p)}
	l.Probability = r.Float("probability", 0.2)
	l.DropBlock = r.Bool("dropblock", false)
	r.Accept("dropblock_size_rel", "dropblock_size_abs")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if l.Probability < 0 || l.Probability > 1 {
		return nil, fail(r, diag.KindInvalidOption, "probability", "probability must be within [0, 1], got %g", l.Probability)
	}
	return l, nil
}

func (l *Dropout) AliasesPredecessor() bool {
	return l.index > 1
}

func (l *Dropout) Detail() string {
	return fmt.Sprintf("p = %.2f", l.Probability)
}

// Empty passes its input through unchanged and shares its predecessor's
// buffers.
type Empty struct {
	Base
}

// NewEmpty builds an empty layer.
func NewEmpty(r *config.Reader, p Params) (*Empty, error) {
	return &Empty{Base: newBase(layertype.Empty, r, p)}, nil
}

func (l *Empty) AliasesPredecessor() bool {
	return l.index > 1
}

// Active applies an activation function to its input.
type Active struct {
	Base
	Activation Activation
}

// NewActive builds an active layer.
func NewActive(r *config.Reader, p Params) (*Active, error) {
	l := &Active{Base: newBase(layertype.Active, r, p)}
	l.Activation = activation(r, "linear")
	if err := r.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Active) Detail() string {
	return l.Activation.String()
}

// BatchNorm normalises its input per channel.
type BatchNorm struct {
	Base
}

// NewBatchNorm builds a batchnorm layer.
func NewBatchNorm(r *config.Reader, p Params) (*BatchNorm, error) {
	l := &BatchNorm{Base: newBase(layertype.BatchNorm, r, p)}
	if err := requireImage(r, p, "batchnorm"); err != nil {
		return nil, err
	}
	return l, nil
}

// ParameterFootprint counts one scale and one bias per channel.
func (l *BatchNorm) ParameterFootprint() uint64 {
	return 2 * uint64(l.in.C)
}

// Softmax normalises its input, optionally in independent groups.
type Softmax struct {
	Base
	Groups      int
	Temperature float64
}

// NewSoftmax builds a softmax layer.
func NewSoftmax(r *config.Reader, p Params) (*Softmax, error) {
	l := &Softmax{Base: newBase(layertype.Softmax, r, p)}
	l.Groups = r.IntQuiet("groups", 1)
	l.Temperature = r.FloatQuiet("temperature", 1)
	r.Accept("tree", "spatial", "noloss")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if l.Groups < 1 || p.Input.Elements()%l.Groups != 0 {
		return nil, fail(r, diag.KindInvalidOption, "groups", "groups=%d does not divide %d inputs", l.Groups, p.Input.Elements())
	}
	return l, nil
}
