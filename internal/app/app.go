package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/fatih/color"

	"github.com/specialistvlad/darkcfg/internal/cfgtext"
	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/hcl"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loaders map[string]config.Loader
	closers []io.Closer
}

// NewApp is the constructor for the main application. Reports go to outW and
// logs to logW (plus the rotated log file when one is configured), so a
// report can be piped without log lines mixed in.
func NewApp(outW, logW io.Writer, appConfig *Config) *App {
	app := &App{
		outW:   outW,
		config: appConfig,
		loaders: map[string]config.Loader{
			".cfg": cfgtext.NewLoader(),
			".hcl": hcl.NewLoader(),
		},
	}

	if appConfig.LogFile != "" {
		file := newLogFile(appConfig.LogFile)
		app.closers = append(app.closers, file)
		logW = io.MultiWriter(logW, file)
	}
	app.logger = newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	app.logger.Debug("Logger configured successfully.", "log_file", appConfig.LogFile)

	if appConfig.NoColor {
		color.NoColor = true
	}
	return app
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases the log file, if any.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
