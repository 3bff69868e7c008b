package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/network"
	"github.com/specialistvlad/darkcfg/internal/report"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Path   string // .cfg or .hcl file, or a directory of them
	Format report.Format

	LogFormat string
	LogLevel  string
	LogFile   string // rotated; empty disables file logging
	NoColor   bool

	GPU            int // network.NoGPU for the CPU
	Batch          int // 0 keeps the batch of the [net] section
	TimeSteps      int // 0 keeps time_steps of the [net] section
	Train          bool
	ReceptiveField bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" {
		return nil, errors.New("Path is a required configuration field and cannot be empty")
	}
	if cfg.Format == "" {
		cfg.Format = report.FormatTable
	}
	format, err := report.ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.GPU < network.NoGPU {
		return nil, fmt.Errorf("invalid GPU index %d: use %d for the CPU", cfg.GPU, network.NoGPU)
	}
	if cfg.Batch < 0 {
		return nil, fmt.Errorf("invalid batch %d: must not be negative", cfg.Batch)
	}
	if cfg.TimeSteps < 0 {
		return nil, fmt.Errorf("invalid time steps %d: must not be negative", cfg.TimeSteps)
	}

	return &cfg, nil
}

// buildOptions translates the overrides into network build options.
func (c *Config) buildOptions() []network.Option {
	opts := []network.Option{
		network.WithTrain(c.Train),
		network.WithReceptiveField(c.ReceptiveField),
	}
	if c.GPU != network.NoGPU {
		opts = append(opts, network.WithGPU(c.GPU))
	}
	if c.Batch > 0 {
		opts = append(opts, network.WithBatch(c.Batch))
	}
	if c.TimeSteps > 0 {
		opts = append(opts, network.WithTimeSteps(c.TimeSteps))
	}
	return opts
}
