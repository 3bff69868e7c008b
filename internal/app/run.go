package app

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/darkcfg/internal/network"
	"github.com/specialistvlad/darkcfg/internal/report"
)

// Run compiles every discovered configuration and writes its report. The
// first configuration that fails to load or build stops the run.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	cfgs, err := a.Load(ctx)
	if err != nil {
		return err
	}

	opts := a.config.buildOptions()
	for i, cfg := range cfgs {
		net, err := network.Build(ctx, cfg, opts...)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", cfg.Source, err)
		}
		a.logger.Info("Network compiled.", "source", cfg.Source, "layers", net.Len(),
			"output", net.OutputShape(), "bflops", net.BFLOPs)

		if i > 0 && a.config.Format == report.FormatYAML {
			if _, err := io.WriteString(a.outW, "---\n"); err != nil {
				return err
			}
		}
		if err := report.Write(a.outW, a.config.Format, cfg.Source, net); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", cfg.Source, err)
		}
	}

	a.logger.Debug("App.Run method finished.", "networks", len(cfgs))
	return nil
}
