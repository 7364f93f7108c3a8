// Package app wires the configured pieces into a running browser: the
// store backend, the thumbnail cache, and the browse session manager.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/browse"
	"github.com/justyntemme/prism/internal/config"
	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/index"
	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/resolve"
	"github.com/justyntemme/prism/internal/store"
	"github.com/justyntemme/prism/internal/store/snapshot"
	"github.com/justyntemme/prism/internal/store/sqlite"
	"github.com/justyntemme/prism/internal/thumb"
)

// Options are the command-line overrides layered on top of config.json.
type Options struct {
	ConfigPath string
	Debug      bool

	// WarmRoot, when set, runs an index pass over the root instead of
	// browsing.
	WarmRoot string

	// Folders are browsed in order; each one becomes the active folder
	// and is pulled to completion.
	Folders []string
}

// Run is the application entry point after flag parsing.
func Run(opts Options) error {
	mgr := config.NewManager()
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}
	if err := mgr.LoadFrom(cfgPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	level := cfg.Logging.Level
	if opts.Debug {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format}); err != nil {
		return err
	}
	defer logging.Sync()

	if err := mgr.ParseError(); err != nil {
		logging.Warn("config unreadable, running on defaults", zap.Error(err))
	}

	st, err := openStore(cfg.Cache)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	thumbs := thumb.NewCache(thumb.NewImageGenerator(),
		cfg.Thumbnails.CacheEntries, cfg.Thumbnails.MaxPixels)
	defer thumbs.Stop()

	enum := fs.NewLocal()

	if opts.WarmRoot != "" {
		return warm(enum, st, cfg, opts.WarmRoot)
	}

	policy := browse.NeverPersist
	if cfg.Cache.Persist {
		policy = browse.AlwaysPersist
	}
	browser, err := browse.New(browse.Options{
		Enumerator:    enum,
		Store:         st,
		Policy:        policy,
		VisitBudget:   cfg.Resolve.VisitBudget,
		BatchSize:     cfg.Resolve.BatchSize,
		Thumbs:        thumbs,
		ExpireAfter:   time.Duration(cfg.Cache.ExpireDays) * 24 * time.Hour,
		SweepInterval: time.Duration(cfg.Cache.SweepHours) * time.Hour,
		WatchActive:   cfg.Watcher.Enabled,
		WatchDebounce: cfg.Watcher.DebounceMs,
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	for _, folder := range opts.Folders {
		if err := browseFolder(browser, folder); err != nil {
			return err
		}
	}
	return nil
}

// browseFolder opens one folder and pulls it to completion, printing
// each resolved entry.
func browseFolder(b *browse.Browser, folder string) error {
	view, err := b.OpenFolder(context.Background(), folder)
	if err != nil {
		return fmt.Errorf("open %s: %w", folder, err)
	}

	fmt.Printf("%s:\n", view.Path())
	for {
		entries, status := view.NextBatch(0)
		for _, e := range entries {
			printEntry(e)
		}
		if status == resolve.StatusDone {
			return nil
		}
		if status == resolve.StatusNone && !view.Live() {
			// The folder was switched or invalidated underneath us;
			// this view will never produce again.
			return nil
		}
	}
}

func printEntry(e resolve.Entry) {
	marker := "dir "
	if e.IsMedia {
		marker = "file"
	}
	label := e.SizeLabel
	if label == "" {
		label = "-"
	}
	fmt.Printf("  %3d  %s  %-30s  %8s  %s\n", e.Index, marker, e.Title, label, e.Path)
}

func warm(enum fs.Enumerator, st store.Store, cfg config.Config, root string) error {
	if st == nil {
		return fmt.Errorf("warm requires a persistent cache backend")
	}
	resolver := resolve.NewResolver(enum, cfg.Resolve.VisitBudget)
	ix := index.New(enum, resolve.NewPipeline(resolver), st, 0)
	n, err := ix.Run(context.Background(), root)
	if err != nil {
		return err
	}
	fmt.Printf("warmed %d folders under %s\n", n, root)
	return nil
}

func openStore(cfg config.CacheConfig) (store.Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = config.DataDir()
	}
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return store.NewMemory(), nil
	case "snapshot":
		st, err := snapshot.New(filepath.Join(dir, "snapshots"))
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := sqlite.Open(filepath.Join(dir, "prism.db"))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Home expands a leading ~ in a path argument.
func Home(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
