// Package store defines the persistent tier for folder sessions: a
// key-value-by-path contract with interchangeable backends.
package store

import (
	"context"
	"time"

	"github.com/justyntemme/prism/internal/resolve"
)

// Snapshot is the at-rest form of a folder session's resolved entries,
// identified by the absolute folder path.
type Snapshot struct {
	Path        string          `json:"path"`
	Entries     []resolve.Entry `json:"entries"`
	LastVisited time.Time       `json:"last_visited"`
}

// Store persists folder snapshots keyed by absolute path. The
// compressed-file and relational backends implement it interchangeably.
type Store interface {
	// Put writes or replaces the snapshot for its path.
	Put(ctx context.Context, snap *Snapshot) error
	// Get returns the snapshot for a path, or (nil, nil) when absent.
	// A corrupt record surfaces as an error so the caller can purge it.
	Get(ctx context.Context, path string) (*Snapshot, error)
	// Delete removes the snapshot for a path. Absence is not an error.
	Delete(ctx context.Context, path string) error
	// List returns every stored folder path.
	List(ctx context.Context) ([]string, error)
	// Sweep removes snapshots not visited within the given age and
	// returns how many were removed.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
	Close() error
}
