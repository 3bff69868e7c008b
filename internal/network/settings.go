package network

import (
	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/lrpolicy"
)

// NoGPU is the GPU index meaning "run on the CPU".
const NoGPU = -1

// Settings is the network-wide record parsed from the [net] section.
type Settings struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Channels int `yaml:"channels"`
	// Inputs is the flattened input size. It defaults to
	// Width*Height*Channels and may be given alone for non-image networks.
	Inputs int `yaml:"inputs"`

	GPUIndex int  `yaml:"gpu_index"`
	Train    bool `yaml:"train"`

	// Batch is the mini-batch (batch/subdivisions) times TimeSteps.
	Batch        int `yaml:"batch"`
	Subdivisions int `yaml:"subdivisions"`
	TimeSteps    int `yaml:"time_steps"`
	MaxBatches   int `yaml:"max_batches"`

	LearningRate    float64         `yaml:"learning_rate"`
	LearningRateMin float64         `yaml:"learning_rate_min"`
	Momentum        float64         `yaml:"momentum"`
	Decay           float64         `yaml:"decay"`
	BurnIn          int             `yaml:"burn_in"`
	Power           float64         `yaml:"power"`
	Policy          lrpolicy.Policy `yaml:"policy"`
	Step            int             `yaml:"step,omitempty"`
	Scale           float64         `yaml:"scale,omitempty"`
	Gamma           float64         `yaml:"gamma,omitempty"`
	Steps           []int           `yaml:"steps,omitempty"`
	Scales          []float64       `yaml:"scales,omitempty"`
	SeqScales       []float64       `yaml:"seq_scales,omitempty"`
	SGDRCycle       int             `yaml:"sgdr_cycle,omitempty"`
	SGDRMult        int             `yaml:"sgdr_mult,omitempty"`

	Adam bool    `yaml:"adam,omitempty"`
	B1   float64 `yaml:"b1,omitempty"`
	B2   float64 `yaml:"b2,omitempty"`
	Eps  float64 `yaml:"eps,omitempty"`

	Augmentation Augmentation `yaml:"augmentation"`

	OptimizedMemory    int     `yaml:"optimized_memory,omitempty"`
	WorkspaceSizeLimit uint64  `yaml:"workspace_size_limit"`
	LossScale          float64 `yaml:"loss_scale"`
	DynamicMinibatch   bool    `yaml:"dynamic_minibatch,omitempty"`
	ShowReceptiveField bool    `yaml:"show_receptive_field,omitempty"`
}

// Augmentation holds the data augmentation knobs of [net]. The compiler only
// records them for the data loader.
type Augmentation struct {
	Angle      float64 `yaml:"angle"`
	Aspect     float64 `yaml:"aspect"`
	Saturation float64 `yaml:"saturation"`
	Exposure   float64 `yaml:"exposure"`
	Hue        float64 `yaml:"hue"`
	Flip       bool    `yaml:"flip"`
	Blur       int     `yaml:"blur,omitempty"`
	// Mixup is 1 for mixup, 2 for cutmix, 3 for mosaic and 4 for
	// mosaic together with cutmix.
	Mixup     int  `yaml:"mixup,omitempty"`
	LetterBox bool `yaml:"letter_box,omitempty"`
	MaxCrop   int  `yaml:"max_crop"`
	MinCrop   int  `yaml:"min_crop"`
}

// InputShape is the shape the first layer receives.
func (s *Settings) InputShape() layer.Shape {
	if s.Width > 0 && s.Height > 0 && s.Channels > 0 {
		return layer.Shape{W: s.Width, H: s.Height, C: s.Channels}
	}
	return layer.Shape{W: 1, H: 1, C: s.Inputs}
}

// netExecutionOptions are [net] options the compiler accepts without
// interpreting; they only steer training and data loading.
var netExecutionOptions = []string{
	"track", "augment_speed", "sequential_subdivisions", "try_fix_nan",
	"weights_reject_freq", "equidistant_point", "badlabels_rejection_percentage",
	"num_sigmas_reject_badlabels", "ema_alpha", "gaussian_noise", "mosaic_bound",
	"contrastive", "contrastive_jit_flip", "contrastive_color", "unsupervised",
	"label_smooth_eps", "resize_step", "attention", "adversarial_lr",
	"max_chart_loss", "cudnn_half", "rgb", "letterbox",
}

// parseSettings reads the [net] section. Options for policies other than the
// selected one are left unread so they show up as unused.
func parseSettings(r *config.Reader, o *options) (*Settings, error) {
	s := &Settings{GPUIndex: NoGPU}

	s.MaxBatches = r.Int("max_batches", 0)
	batch := r.Int("batch", 1)
	s.LearningRate = r.Float("learning_rate", 0.001)
	s.LearningRateMin = r.FloatQuiet("learning_rate_min", 0.00001)
	s.SGDRCycle = r.IntQuiet("sgdr_cycle", s.MaxBatches)
	s.SGDRMult = r.IntQuiet("sgdr_mult", 2)
	s.Momentum = r.Float("momentum", 0.9)
	s.Decay = r.Float("decay", 0.0001)
	s.Subdivisions = r.Int("subdivisions", 1)
	s.TimeSteps = r.IntQuiet("time_steps", 1)

	s.LossScale = r.FloatQuiet("loss_scale", 1)
	s.DynamicMinibatch = r.Bool("dynamic_minibatch", false)
	s.OptimizedMemory = r.IntQuiet("optimized_memory", 0)
	s.WorkspaceSizeLimit = uint64(1024 * 1024 * r.FloatQuiet("workspace_size_limit_MB", 1024))

	s.Adam = r.Bool("adam", false)
	if s.Adam {
		s.B1 = r.Float("B1", 0.9)
		s.B2 = r.Float("B2", 0.999)
		s.Eps = r.Float("eps", 0.000001)
	}

	// w, h and c are short aliases; the long names win when both are set.
	s.Height = r.IntQuiet("height", r.IntQuiet("h", 0))
	s.Width = r.IntQuiet("width", r.IntQuiet("w", 0))
	s.Channels = r.IntQuiet("channels", r.IntQuiet("c", 0))
	imageInputs, inputsFit := layer.Shape{W: s.Width, H: s.Height, C: s.Channels}.CheckedElements()
	s.Inputs = r.IntQuiet("inputs", imageInputs)

	a := &s.Augmentation
	a.MaxCrop = r.IntQuiet("max_crop", s.Width*2)
	a.MinCrop = r.IntQuiet("min_crop", s.Width)
	a.Flip = r.Bool("flip", true)
	a.Blur = r.IntQuiet("blur", 0)
	a.Mixup = r.IntQuiet("mixup", 0)
	cutmix := r.Bool("cutmix", false)
	mosaic := r.Bool("mosaic", false)
	switch {
	case mosaic && cutmix:
		a.Mixup = 4
	case cutmix:
		a.Mixup = 2
	case mosaic:
		a.Mixup = 3
	}
	a.LetterBox = r.Bool("letter_box", false)
	a.Angle = r.FloatQuiet("angle", 0)
	a.Aspect = r.FloatQuiet("aspect", 1)
	a.Saturation = r.FloatQuiet("saturation", 1)
	a.Exposure = r.FloatQuiet("exposure", 1)
	a.Hue = r.FloatQuiet("hue", 0)
	s.Power = r.FloatQuiet("power", 4)
	s.ShowReceptiveField = r.FloatQuiet("show_receptive_field", 0) != 0
	r.Accept(netExecutionOptions...)

	policyName := r.String("policy", "constant")
	s.BurnIn = r.IntQuiet("burn_in", 0)
	if err := r.Err(); err != nil {
		return nil, err
	}

	policy, err := lrpolicy.FromString(policyName)
	if err != nil {
		return nil, diag.At(err, r.Section().Name, r.Line("policy"), diag.KindInvalidOption)
	}
	s.Policy = policy
	if err := parsePolicy(r, s); err != nil {
		return nil, err
	}

	if s.Subdivisions < 1 {
		return nil, diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Line("subdivisions"), "subdivisions must be at least 1, got %d", s.Subdivisions)
	}
	if s.Width < 0 || s.Height < 0 || s.Channels < 0 {
		return nil, diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Section().Line, "width, height and channels must not be negative")
	}
	if !inputsFit {
		return nil, diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Section().Line,
			"input size %d x %d x %d overflows the element count", s.Width, s.Height, s.Channels)
	}
	if !s.InputShape().Valid() {
		return nil, diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Section().Line, "no input parameters supplied: set width, height and channels (or inputs)")
	}

	s.Batch = batch / s.Subdivisions
	if o.timeSteps > 0 {
		s.TimeSteps = o.timeSteps
	}
	s.TimeSteps = max(1, s.TimeSteps)
	s.Batch *= s.TimeSteps
	if o.batch > 0 {
		s.Batch = o.batch
	}
	s.Batch = max(s.Batch, 1, s.TimeSteps)

	s.Train = o.train
	if o.gpu != nil {
		s.GPUIndex = *o.gpu
	}
	if o.receptiveField {
		s.ShowReceptiveField = true
	}
	return s, nil
}

// parsePolicy reads the parameters of the selected learning-rate policy.
func parsePolicy(r *config.Reader, s *Settings) error {
	switch s.Policy {
	case lrpolicy.Step:
		s.Step = r.Int("step", 1)
		s.Scale = r.Float("scale", 1)
	case lrpolicy.Steps, lrpolicy.SGDR:
		steps, hasSteps := r.IntList("steps")
		scales, hasScales := r.FloatList("scales")
		seqScales, hasSeq := r.FloatList("seq_scales")
		if err := r.Err(); err != nil {
			return err
		}
		if s.Policy == lrpolicy.Steps && (!hasSteps || !hasScales) {
			return diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Line("policy"), "steps policy needs both steps= and scales=")
		}
		if !hasSteps {
			break
		}
		if !hasScales {
			scales = ones(len(steps))
		}
		if !hasSeq {
			seqScales = ones(len(steps))
		}
		if len(scales) != len(steps) || len(seqScales) != len(steps) {
			return diag.Newf(diag.KindInvalidOption, r.Section().Name, r.Line("steps"),
				"steps, scales and seq_scales must have the same length, got %d, %d and %d", len(steps), len(scales), len(seqScales))
		}
		s.Steps, s.Scales, s.SeqScales = steps, scales, seqScales
	case lrpolicy.Exp:
		s.Gamma = r.Float("gamma", 1)
	case lrpolicy.Sigmoid:
		s.Gamma = r.Float("gamma", 1)
		s.Step = r.Int("step", 1)
	case lrpolicy.Constant, lrpolicy.Poly, lrpolicy.Random:
	}
	return r.Err()
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
