package layer

import (
	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// floatSize is the byte width of one value on the default float32 path.
const floatSize = 4

// Node is one compiled layer. The set of implementations is closed: every
// variant lives in this package and embeds Base.
type Node interface {
	Type() layertype.LayerType
	Index() int
	Section() string
	Line() int
	InputShape() Shape
	OutputShape() Shape
	// WorkspaceNeed is the scratch memory in bytes this layer needs.
	WorkspaceNeed() uint64
	// ParameterFootprint is the number of trainable values the layer owns.
	ParameterFootprint() uint64
	BFLOPs() float64
	// Inputs lists the 1-based indices of the earlier layers this layer reads
	// besides its immediate predecessor.
	Inputs() []int
	// AliasesPredecessor reports whether the layer reuses its predecessor's
	// output and delta buffers instead of owning its own.
	AliasesPredecessor() bool
	Receptive() Receptive
	Common() Common
	Geometry() Geometry
	// Detail is a short human-readable summary of the layer parameters.
	Detail() string

	base() *Base
}

// Common holds the per-layer options every section may carry. All of them
// are optional; an absent option takes its zero default, except
// LearningRateScale which defaults to 1.
type Common struct {
	Clip              float64 `yaml:"clip,omitempty"`
	OnlyForward       bool    `yaml:"only_forward,omitempty"`
	DontUpdate        bool    `yaml:"dont_update,omitempty"`
	BurninUpdate      bool    `yaml:"burnin_update,omitempty"`
	StopBackward      bool    `yaml:"stop_backward,omitempty"`
	TrainOnlyBN       bool    `yaml:"train_only_bn,omitempty"`
	DontLoad          bool    `yaml:"dont_load,omitempty"`
	DontLoadScales    bool    `yaml:"dont_load_scales,omitempty"`
	LearningRateScale float64 `yaml:"learning_rate_scale"`
	// Frozen is set on every layer before the last stopbackward layer of a
	// network built for training.
	Frozen bool `yaml:"frozen,omitempty"`
}

// Receptive is the accumulated receptive field of a layer and the stride
// scale at which it grows.
type Receptive struct {
	W      int `yaml:"w"`
	H      int `yaml:"h"`
	ScaleW int `yaml:"scale_w"`
	ScaleH int `yaml:"scale_h"`
}

// Geometry is the sliding-window extent a layer contributes to the receptive
// field. Layers without a window report size, stride and dilation of 1.
type Geometry struct {
	Size     int
	Stride   int
	Dilation int
}

// Params is what the builder hands to a constructor.
type Params struct {
	// Index is the 1-based position of the layer being built.
	Index int
	// Input is the output shape of the previous layer, or the network input
	// for the first layer.
	Input Shape
	// Prior holds the layers built so far; Prior[i-1] has index i.
	Prior []Node
}

// Layer returns the already built layer with the given 1-based index.
func (p Params) Layer(index int) (Node, bool) {
	if index < 1 || index > len(p.Prior) {
		return nil, false
	}
	return p.Prior[index-1], true
}

// Base carries the attributes shared by every variant and implements the
// parts of Node that do not depend on the layer type.
type Base struct {
	kind      layertype.LayerType
	index     int
	section   string
	line      int
	in        Shape
	out       Shape
	inputs    []int
	common    Common
	receptive Receptive
	geometry  Geometry
}

func newBase(t layertype.LayerType, r *config.Reader, p Params) Base {
	s := r.Section()
	return Base{
		kind:     t,
		index:    p.Index,
		section:  s.Name,
		line:     s.Line,
		in:       p.Input,
		out:      p.Input,
		geometry: Geometry{Size: 1, Stride: 1, Dilation: 1},
	}
}

func (b *Base) Type() layertype.LayerType  { return b.kind }
func (b *Base) Index() int                 { return b.index }
func (b *Base) Section() string            { return b.section }
func (b *Base) Line() int                  { return b.line }
func (b *Base) InputShape() Shape          { return b.in }
func (b *Base) OutputShape() Shape         { return b.out }
func (b *Base) WorkspaceNeed() uint64      { return 0 }
func (b *Base) ParameterFootprint() uint64 { return 0 }
func (b *Base) BFLOPs() float64            { return 0 }
func (b *Base) AliasesPredecessor() bool   { return false }
func (b *Base) Receptive() Receptive       { return b.receptive }
func (b *Base) Common() Common             { return b.common }
func (b *Base) Geometry() Geometry         { return b.geometry }
func (b *Base) Detail() string             { return "" }
func (b *Base) base() *Base                { return b }

// Inputs returns a copy of the back-references.
func (b *Base) Inputs() []int {
	if len(b.inputs) == 0 {
		return nil
	}
	out := make([]int, len(b.inputs))
	copy(out, b.inputs)
	return out
}

// ReadCommon reads the options shared by every layer section.
func ReadCommon(r *config.Reader) Common {
	return Common{
		Clip:              r.FloatQuiet("clip", 0),
		OnlyForward:       r.Bool("onlyforward", false),
		DontUpdate:        r.Bool("dont_update", false),
		BurninUpdate:      r.Bool("burnin_update", false),
		StopBackward:      r.Bool("stopbackward", false),
		TrainOnlyBN:       r.Bool("train_only_bn", false),
		DontLoad:          r.Bool("dontload", false),
		DontLoadScales:    r.Bool("dontloadscales", false),
		LearningRateScale: r.FloatQuiet("learning_rate", 1),
	}
}

// Apply records the shared options on n.
func Apply(n Node, c Common) {
	n.base().common = c
}

// Freeze marks n as forward-only.
func Freeze(n Node) {
	b := n.base()
	b.common.Frozen = true
	b.common.OnlyForward = true
}

// TrackReceptive extends the receptive field cur by layer n, records the
// result on n and returns it as the field seen by the next layer. Route
// layers restart from the widest of their branches; upsample and reorg keep
// the field and divide the scale by their stride.
func TrackReceptive(n Node, cur Receptive, prior []Node) Receptive {
	g := n.Geometry()
	size, stride, dilation := max(1, g.Size), max(1, g.Stride), max(1, g.Dilation)

	switch n.Type() {
	case layertype.Upsample, layertype.Reorg:
		cur.ScaleW /= stride
		cur.ScaleH /= stride
	case layertype.Route:
		cur = Receptive{}
		for _, i := range n.Inputs() {
			if i < 1 || i > len(prior) {
				continue
			}
			r := prior[i-1].Receptive()
			cur.W = max(cur.W, r.W)
			cur.H = max(cur.H, r.H)
			cur.ScaleW = max(cur.ScaleW, r.ScaleW)
			cur.ScaleH = max(cur.ScaleH, r.ScaleH)
		}
	default:
		increase := max(0, size+(dilation-1)*2-1)
		cur.W += increase * cur.ScaleW
		cur.H += increase * cur.ScaleH
		cur.ScaleW *= stride
		cur.ScaleH *= stride
	}
	n.base().receptive = cur
	return cur
}

// fail builds a diagnostic located at key, or at the section header when key
// is empty or absent.
func fail(r *config.Reader, kind diag.Kind, key string, format string, args ...any) error {
	return diag.Newf(kind, r.Section().Name, r.Line(key), format, args...)
}

// requireImage rejects an input without spatial extent.
func requireImage(r *config.Reader, p Params, what string) error {
	if !p.Input.Valid() {
		return fail(r, diag.KindShapeMismatch, "", "layer before %s layer must output an image, got %s", what, p.Input)
	}
	return nil
}

// activation reads and resolves an activation option.
func activation(r *config.Reader, def string) Activation {
	name := r.String("activation", def)
	a, err := ParseActivation(name)
	if err != nil {
		r.Fail(fail(r, diag.KindInvalidOption, "activation", "unknown activation %q", name))
		return Linear
	}
	return a
}
