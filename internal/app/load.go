package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/ctxlog"
	"github.com/specialistvlad/darkcfg/internal/fsutil"
)

// Load discovers the configuration files under the configured path and
// loads each with the loader matching its extension. Files with an unknown
// extension fall back to the darknet .cfg syntax, which is what darknet
// itself does with any file it is handed.
func (a *App) Load(ctx context.Context) ([]*config.Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Discovering configuration files...", "path", a.config.Path)

	files, err := fsutil.FindFilesByExtension(a.config.Path, a.extensions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to discover configuration files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s (looked for %s)", a.config.Path, strings.Join(a.extensions(), ", "))
	}
	logger.Debug("Configuration files discovered.", "count", len(files))

	cfgs := make([]*config.Config, 0, len(files))
	for _, path := range files {
		cfg, err := a.loaderFor(path).Load(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Configuration loaded.", "path", path, "sections", len(cfg.Sections))
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func (a *App) loaderFor(path string) config.Loader {
	if l, ok := a.loaders[strings.ToLower(filepath.Ext(path))]; ok {
		return l
	}
	return a.loaders[".cfg"]
}

func (a *App) extensions() []string {
	exts := make([]string, 0, len(a.loaders))
	for ext := range a.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
