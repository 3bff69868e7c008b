package layer

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// WeightsType selects how a shortcut weighs its inputs.
type WeightsType int

const (
	NoWeights WeightsType = iota
	PerFeature
	PerChannel
)

var weightsTypeNames = [...]string{NoWeights: "none", PerFeature: "per_feature", PerChannel: "per_channel"}

func (w WeightsType) String() string {
	if w >= 0 && int(w) < len(weightsTypeNames) {
		return weightsTypeNames[w]
	}
	return fmt.Sprintf("WeightsType(%d)", int(w))
}

// Normalization selects how shortcut weights are normalised.
type Normalization int

const (
	NoNormalization Normalization = iota
	ReLUNormalization
	SoftmaxNormalization
)

var normalizationNames = [...]string{NoNormalization: "none", ReLUNormalization: "relu", SoftmaxNormalization: "softmax"}

func (n Normalization) String() string {
	if n >= 0 && int(n) < len(normalizationNames) {
		return normalizationNames[n]
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

// Shortcut adds the outputs of earlier layers to its input. Every referenced
// layer must produce exactly the input shape.
type Shortcut struct {
	Base
	From                 []int
	Activation           Activation
	WeightsType          WeightsType
	WeightsNormalization Normalization
}

// NewShortcut builds a shortcut layer.
func NewShortcut(r *config.Reader, p Params) (*Shortcut, error) {
	l := &Shortcut{Base: newBase(layertype.Shortcut, r, p)}
	l.Activation = activation(r, "linear")
	wt := r.StringQuiet("weights_type", "none")
	wn := r.StringQuiet("weights_normalization", "none")
	if err := r.Err(); err != nil {
		return nil, err
	}

	var ok bool
	if l.WeightsType, ok = lookupName[WeightsType](weightsTypeNames[:], wt); !ok {
		return nil, fail(r, diag.KindInvalidOption, "weights_type", "unknown weights_type %q", wt)
	}
	if l.WeightsNormalization, ok = lookupName[Normalization](normalizationNames[:], wn); !ok {
		return nil, fail(r, diag.KindInvalidOption, "weights_normalization", "unknown weights_normalization %q", wn)
	}

	refs, err := resolveRefs(r, p, "from")
	if err != nil {
		return nil, err
	}
	for _, i := range refs {
		n, _ := p.Layer(i)
		if n.OutputShape() != p.Input {
			return nil, fail(r, diag.KindShapeMismatch, "from",
				"layer %d output %s does not match shortcut input %s", i, n.OutputShape(), p.Input)
		}
	}
	l.From = refs
	l.inputs = refs
	return l, nil
}

// ParameterFootprint counts the optional per-input weights.
func (l *Shortcut) ParameterFootprint() uint64 {
	inputs := uint64(len(l.From) + 1)
	switch l.WeightsType {
	case PerFeature:
		return inputs
	case PerChannel:
		return inputs * uint64(l.in.C)
	}
	return 0
}

func (l *Shortcut) BFLOPs() float64 {
	return float64(l.out.Elements()) * float64(len(l.From)) / 1e9
}

func (l *Shortcut) Detail() string {
	s := joinInts(l.From)
	if l.WeightsType != NoWeights {
		s += " wt=" + l.WeightsType.String()
	}
	return s
}

// ScaleChannels multiplies a referenced layer's output by per-channel (or,
// with scale_wh, per-position) factors taken from its input.
type ScaleChannels struct {
	Base
	From       int
	ScaleWH    bool
	Activation Activation
}

// NewScaleChannels builds a scale_channels layer. Its output has the shape
// of the referenced layer.
func NewScaleChannels(r *config.Reader, p Params) (*ScaleChannels, error) {
	l := &ScaleChannels{Base: newBase(layertype.ScaleChannels, r, p)}
	l.ScaleWH = r.Bool("scale_wh", false)
	l.Activation = activation(r, "linear")
	if err := r.Err(); err != nil {
		return nil, err
	}
	ref, err := resolveRef(r, p, "from")
	if err != nil {
		return nil, err
	}

	s := ref.OutputShape()
	if l.ScaleWH {
		if s.W != p.Input.W || s.H != p.Input.H {
			return nil, fail(r, diag.KindShapeMismatch, "from",
				"layer %d output %s does not match the %d x %d scale map", ref.Index(), s, p.Input.W, p.Input.H)
		}
	} else if s.C != p.Input.C {
		return nil, fail(r, diag.KindShapeMismatch, "from",
			"layer %d has %d channels but the scale vector has %d", ref.Index(), s.C, p.Input.C)
	}

	l.From = ref.Index()
	l.inputs = []int{l.From}
	l.out = s
	return l, nil
}

func (l *ScaleChannels) Detail() string {
	return fmt.Sprint(l.From)
}

// SAM is spatial attention: the referenced layer's output is multiplied
// element-wise by its input, so both must have the same shape.
type SAM struct {
	Base
	From       int
	Activation Activation
}

// NewSAM builds a sam layer.
func NewSAM(r *config.Reader, p Params) (*SAM, error) {
	l := &SAM{Base: newBase(layertype.SAM, r, p)}
	l.Activation = activation(r, "linear")
	if err := r.Err(); err != nil {
		return nil, err
	}
	ref, err := resolveRef(r, p, "from")
	if err != nil {
		return nil, err
	}
	if ref.OutputShape() != p.Input {
		return nil, fail(r, diag.KindShapeMismatch, "from",
			"layer %d output %s does not match sam input %s", ref.Index(), ref.OutputShape(), p.Input)
	}

	l.From = ref.Index()
	l.inputs = []int{l.From}
	l.out = ref.OutputShape()
	return l, nil
}

func (l *SAM) Detail() string {
	return fmt.Sprint(l.From)
}

func lookupName[T ~int](names []string, s string) (T, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return T(i), true
		}
	}
	return 0, false
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
