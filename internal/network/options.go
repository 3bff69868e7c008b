package network

// Option adjusts how Build compiles a configuration.
type Option func(*options)

type options struct {
	batch          int
	timeSteps      int
	train          bool
	gpu            *int
	receptiveField bool
}

// WithBatch overrides the batch size computed from [net].
func WithBatch(n int) Option {
	return func(o *options) {
		o.batch = n
	}
}

// WithTimeSteps overrides time_steps from [net].
func WithTimeSteps(n int) Option {
	return func(o *options) {
		o.timeSteps = n
	}
}

// WithTrain builds the network for training, which enables the freeze of
// every layer before the last stopbackward=1 layer.
func WithTrain(train bool) Option {
	return func(o *options) {
		o.train = train
	}
}

// WithGPU selects the device the network is meant for. Without it the
// network targets the CPU (NoGPU).
func WithGPU(index int) Option {
	return func(o *options) {
		o.gpu = &index
	}
}

// WithReceptiveField turns on receptive field tracking regardless of
// show_receptive_field in [net].
func WithReceptiveField(enabled bool) Option {
	return func(o *options) {
		o.receptiveField = enabled
	}
}
