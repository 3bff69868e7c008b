package network

import (
	"context"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layer"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Build compiles cfg into a Network. The first section must be [net]; every
// following section becomes one layer, built in file order with the output
// shape of each layer threaded into the next. The first error aborts the
// build. Build keeps no state between calls and only reads cfg.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Network, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := ctxlog.FromContext(ctx)

	if cfg == nil || len(cfg.Sections) < 2 {
		return nil, diag.New(diag.KindStructure, "configuration contains an invalid number of sections")
	}
	logger = logger.With("source", cfg.Source)
	ctx = ctxlog.WithLogger(ctx, logger)

	first := cfg.Sections[0]
	if t, err := layertype.FromString(first.Name); err != nil || t != layertype.Network {
		return nil, diag.Newf(diag.KindStructure, first.Name, first.Line,
			"first section should be [net] or [network] but found [%s]", first.Name)
	}

	r := config.NewReader(ctx, first)
	settings, err := parseSettings(r, o)
	if err != nil {
		return nil, diag.At(err, first.Name, first.Line, diag.KindInvalidOption)
	}
	warnUnused(ctx, r)
	logger.Debug("Network settings parsed.",
		"input", settings.InputShape(), "batch", settings.Batch, "subdivisions", settings.Subdivisions,
		"time_steps", settings.TimeSteps, "train", settings.Train, "policy", settings.Policy)

	net := &Network{
		Settings: settings,
		layers:   make([]layer.Node, 0, len(cfg.Sections)-1),
	}
	input := settings.InputShape()
	receptive := layer.Receptive{W: 1, H: 1, ScaleW: 1, ScaleH: 1}
	avgOutputs, avgCount := 0, 0

	for i, s := range cfg.Sections[1:] {
		idx := i + 1
		t, err := layertype.FromString(s.Name)
		if err != nil {
			return nil, diag.At(err, s.Name, s.Line, diag.KindUnknownLayerType)
		}
		if t == layertype.Network {
			return nil, diag.Newf(diag.KindStructure, s.Name, s.Line,
				"network section must appear exactly once, first; found another at section %d", idx+1)
		}

		r := config.NewReader(ctx, s)
		n, err := create(t, r, layer.Params{Index: idx, Input: input, Prior: net.layers})
		if err != nil {
			return nil, diag.At(err, s.Name, s.Line, diag.KindInvalidOption)
		}
		common := layer.ReadCommon(r)
		if err := r.Err(); err != nil {
			return nil, diag.At(err, s.Name, s.Line, diag.KindInvalidOption)
		}
		layer.Apply(n, common)
		warnUnused(ctx, r)
		net.layers = append(net.layers, n)

		if settings.ShowReceptiveField {
			receptive = layer.TrackReceptive(n, receptive, net.layers)
			logger.Debug("Receptive field.", "index", idx, "w", receptive.W, "h", receptive.H)
		}
		if common.StopBackward {
			logger.Info("Previous layers are frozen.", "index", idx, "section", s.Name, "line", s.Line)
		}

		net.WorkspaceSize = max(net.WorkspaceSize, n.WorkspaceNeed())
		net.MaxInputs = max(net.MaxInputs, n.InputShape().Elements())
		net.MaxOutputs = max(net.MaxOutputs, n.OutputShape().Elements())
		net.BFLOPs += n.BFLOPs()
		if n.InputShape().Spatial() {
			avgOutputs += n.OutputShape().Elements()
			avgCount++
		}

		logger.Debug("Layer built.", "index", idx, "type", t, "detail", n.Detail(),
			"input", n.InputShape(), "output", n.OutputShape(), "bflops", n.BFLOPs())
		input = n.OutputShape()
	}

	if settings.Train {
		freeze(ctx, net.layers)
	}
	if avgCount > 0 {
		net.AvgOutputs = avgOutputs / avgCount
	}

	g, err := index(net.layers)
	if err != nil {
		return nil, diag.New(diag.KindReference, "invalid layer graph: %v", err)
	}
	net.graph = g

	last := net.layers[len(net.layers)-1].Type()
	if (last == layertype.YOLO || last == layertype.Region || last == layertype.Detection) &&
		(settings.Width%32 != 0 || settings.Height%32 != 0) {
		logger.Warn("Width and height should be divisible by 32 for detection networks.",
			"width", settings.Width, "height", settings.Height)
	}

	logger.Debug("Network compiled.", "layers", net.Len(), "workspace", net.WorkspaceSize,
		"max_inputs", net.MaxInputs, "max_outputs", net.MaxOutputs, "bflops", net.BFLOPs)
	return net, nil
}

// create dispatches a section to the constructor for its type. Every member
// of the enum has a case.
func create(t layertype.LayerType, r *config.Reader, p layer.Params) (layer.Node, error) {
	switch t {
	case layertype.Convolutional:
		return node(layer.NewConvolutional(r, p))
	case layertype.Connected:
		return node(layer.NewConnected(r, p))
	case layertype.MaxPool:
		return node(layer.NewMaxPool(r, p))
	case layertype.LocalAvgPool:
		return node(layer.NewLocalAvgPool(r, p))
	case layertype.AvgPool:
		return node(layer.NewAvgPool(r, p))
	case layertype.Softmax:
		return node(layer.NewSoftmax(r, p))
	case layertype.Dropout:
		return node(layer.NewDropout(r, p))
	case layertype.Route:
		return node(layer.NewRoute(r, p))
	case layertype.Shortcut:
		return node(layer.NewShortcut(r, p))
	case layertype.ScaleChannels:
		return node(layer.NewScaleChannels(r, p))
	case layertype.SAM:
		return node(layer.NewSAM(r, p))
	case layertype.Active:
		return node(layer.NewActive(r, p))
	case layertype.BatchNorm:
		return node(layer.NewBatchNorm(r, p))
	case layertype.YOLO:
		return node(layer.NewYOLO(r, p))
	case layertype.Reorg:
		return node(layer.NewReorg(r, p))
	case layertype.Upsample:
		return node(layer.NewUpsample(r, p))
	case layertype.Empty:
		return node(layer.NewEmpty(r, p))
	case layertype.Implicit:
		return node(layer.NewImplicit(r, p))
	case layertype.Deconvolutional, layertype.Detection, layertype.Crop, layertype.Cost,
		layertype.Normalization, layertype.Local, layertype.RNN, layertype.GRU, layertype.LSTM,
		layertype.ConvLSTM, layertype.History, layertype.CRNN, layertype.XNOR, layertype.Region,
		layertype.GaussianYOLO, layertype.ISEG, layertype.ReorgOld, layertype.LogXEnt,
		layertype.L2Norm, layertype.Black, layertype.Contrastive:
		return nil, diag.Newf(diag.KindNotImplemented, r.Section().Name, r.Section().Line,
			"layer type %s is recognised but cannot be compiled yet", t)
	case layertype.Network, layertype.Max:
	}
	return nil, diag.Newf(diag.KindInvalidEnum, r.Section().Name, r.Section().Line, "no constructor for layer type %s", t)
}

// node drops the concrete type so a failed constructor yields a nil Node.
func node[T layer.Node](n T, err error) (layer.Node, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

// freeze marks every layer before the last stopbackward layer as forward
// only.
func freeze(ctx context.Context, layers []layer.Node) {
	last := 0
	for _, l := range layers {
		if l.Common().StopBackward {
			last = l.Index()
		}
	}
	if last == 0 {
		return
	}
	for _, l := range layers[:last-1] {
		layer.Freeze(l)
	}
	ctxlog.FromContext(ctx).Debug("Layers frozen for training.", "count", last-1, "last_stop_backward", last)
}

func warnUnused(ctx context.Context, r *config.Reader) {
	logger := ctxlog.FromContext(ctx)
	for _, key := range r.Unused() {
		o, _ := r.Section().Lookup(key)
		logger.Warn("Unused option.", "section", r.Section().Name, "line", o.Line, "option", key, "value", o.Value)
	}
}
