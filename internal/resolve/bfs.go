// Package resolve turns raw directory entries into display-ready
// records: a pure bounded search for representative thumbnails plus a
// per-session pipeline that resolves entries one pull at a time.
package resolve

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/media"
)

// DefaultVisitBudget is the maximum number of folders dequeued during a
// nested thumbnail search. The budget counts dequeues, not depth.
const DefaultVisitBudget = 10

// Found describes a representative thumbnail located below a folder.
type Found struct {
	// ThumbnailPath is the first compatible media file in enumeration order.
	ThumbnailPath string
	Kind          media.Kind
	// EffectivePath is the folder the UI should open for this entry:
	// the searched folder itself when it holds media directly,
	// otherwise the parent of the folder that does. Opening there
	// skips empty wrapper folders.
	EffectivePath string
}

// Resolver performs the bounded breadth-first thumbnail search. It is
// stateless; appending results to a session is the pipeline's job.
type Resolver struct {
	enum   fs.Enumerator
	budget int
}

func NewResolver(enum fs.Enumerator, budget int) *Resolver {
	if budget <= 0 {
		budget = DefaultVisitBudget
	}
	return &Resolver{enum: enum, budget: budget}
}

// Resolve searches folderPath and its descendants for the first
// compatible media file, inspecting at most the budgeted number of
// folders. Returns ok=false when the budget is exhausted with nothing
// found; that is an absence, not an error.
func (r *Resolver) Resolve(ctx context.Context, folderPath string) (Found, bool) {
	queue := []string{folderPath}

	for visited := 0; len(queue) > 0 && visited < r.budget; visited++ {
		if ctx.Err() != nil {
			return Found{}, false
		}

		current := queue[0]
		queue = queue[1:]

		dirents, err := r.enum.List(ctx, current)
		if err != nil {
			// Unreadable sub-folders are skipped; the search goes on.
			logging.Debug("bfs: skipping folder", zap.String("path", current), zap.Error(err))
			continue
		}

		for _, d := range dirents {
			if d.IsDir {
				queue = append(queue, d.Path)
				continue
			}
			if !d.IsCompatible {
				continue
			}
			found := Found{
				ThumbnailPath: d.Path,
				Kind:          d.Kind,
				EffectivePath: folderPath,
			}
			if current != folderPath {
				found.EffectivePath = filepath.Dir(current)
			}
			return found, true
		}
	}

	return Found{}, false
}
