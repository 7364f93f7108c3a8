// Package index pre-resolves folders into the persistent tier so first
// visits hit a warm snapshot instead of a cold enumeration.
package index

import (
	"context"
	"fmt"
	iofs "io/fs"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/resolve"
	"github.com/justyntemme/prism/internal/store"
)

// DefaultMaxFolders bounds one warm-up pass.
const DefaultMaxFolders = 256

// Indexer walks a library root and runs the resolution pipeline over
// each directory it finds, snapshotting the results.
type Indexer struct {
	enum       fs.Enumerator
	pipeline   *resolve.Pipeline
	store      store.Store
	maxFolders int
}

func New(enum fs.Enumerator, pipeline *resolve.Pipeline, st store.Store, maxFolders int) *Indexer {
	if maxFolders <= 0 {
		maxFolders = DefaultMaxFolders
	}
	return &Indexer{enum: enum, pipeline: pipeline, store: st, maxFolders: maxFolders}
}

// Run warms the persistent tier for every directory under root, up to
// the folder bound. Returns how many folders were snapshotted. The pass
// is cancellable through ctx; folders that resolve to nothing are not
// stored.
func (ix *Indexer) Run(ctx context.Context, root string) (int, error) {
	if ix.store == nil {
		return 0, fmt.Errorf("index: no persistent store configured")
	}

	var (
		mu   sync.Mutex
		dirs []string
	)
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, root, func(path string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		mu.Lock()
		full := len(dirs) >= ix.maxFolders
		if !full {
			dirs = append(dirs, path)
		}
		mu.Unlock()
		if full {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", root, err)
	}

	warmed := 0
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if err := ix.warmFolder(ctx, dir); err != nil {
			logging.Debug("index: folder skipped", zap.String("path", dir), zap.Error(err))
			continue
		}
		warmed++
	}

	logging.Info("index: warm pass complete", zap.String("root", root), zap.Int("folders", warmed))
	return warmed, nil
}

// warmFolder resolves one directory to completion and snapshots it.
func (ix *Indexer) warmFolder(ctx context.Context, dir string) error {
	dirents, err := ix.enum.List(ctx, dir)
	if err != nil {
		return err
	}

	sess := resolve.NewSession(dir, dirents)
	for {
		_, status := ix.pipeline.ResolveNext(ctx, sess)
		if status == resolve.StatusDone {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	entries := sess.Resolved()
	if len(entries) == 0 {
		return fmt.Errorf("no resolvable entries")
	}
	return ix.store.Put(ctx, &store.Snapshot{
		Path:        dir,
		Entries:     entries,
		LastVisited: time.Now(),
	})
}
