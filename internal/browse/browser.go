// Package browse owns the per-folder sessions and the pull boundary
// the UI consumes. One folder is active at a time; switching folders is
// the sole cancellation mechanism for in-flight resolution.
package browse

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/resolve"
	"github.com/justyntemme/prism/internal/store"
	"github.com/justyntemme/prism/internal/thumb"
)

const (
	// DefaultBatchSize bounds how many entries one NextBatch call resolves.
	DefaultBatchSize = 5
	// DefaultExpireAfter is how long persisted snapshots survive unvisited.
	DefaultExpireAfter = 30 * 24 * time.Hour
)

// Options configures a Browser. The zero value is usable: local
// filesystem, no persistent tier, nothing remembered across switches.
type Options struct {
	Enumerator  fs.Enumerator
	Store       store.Store
	Policy      PersistPolicy
	VisitBudget int
	BatchSize   int

	// Thumbs, when set, gets a background generation request for
	// every media entry emitted through the pull boundary.
	Thumbs *thumb.Cache

	// ExpireAfter and SweepInterval control the persistent-tier
	// expiry sweep. The sweep only runs when a store is configured
	// and SweepInterval is positive.
	ExpireAfter   time.Duration
	SweepInterval time.Duration

	// WatchActive invalidates the active folder's session when its
	// contents change on disk.
	WatchActive   bool
	WatchDebounce int // milliseconds
}

// Browser is the session manager: the active path, the in-memory
// session map, and the tiers below them. All three storage tiers are
// consulted in order on open; the invalidation policy runs on switch.
type Browser struct {
	mu           sync.Mutex
	active       string
	activeCtx    context.Context
	activeCancel context.CancelFunc
	sessions     map[string]*folderState

	enum     fs.Enumerator
	pipeline *resolve.Pipeline
	store    store.Store
	policy   PersistPolicy
	batch    int

	watcher   *dirWatcher
	sweepStop chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type folderState struct {
	sess    *resolve.Session
	persist bool
}

// New creates a Browser from options.
func New(opts Options) (*Browser, error) {
	enum := opts.Enumerator
	if enum == nil {
		enum = fs.NewLocal()
	}
	policy := opts.Policy
	if policy == nil {
		policy = NeverPersist
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	pipeline := resolve.NewPipeline(resolve.NewResolver(enum, opts.VisitBudget))
	if opts.Thumbs != nil {
		pipeline.WarmThumbnails(opts.Thumbs)
	}

	b := &Browser{
		sessions: make(map[string]*folderState),
		enum:     enum,
		pipeline: pipeline,
		store:    opts.Store,
		policy:   policy,
		batch:    batch,
	}

	if opts.Store != nil && opts.SweepInterval > 0 {
		expire := opts.ExpireAfter
		if expire <= 0 {
			expire = DefaultExpireAfter
		}
		b.sweepStop = make(chan struct{})
		go b.sweepLoop(opts.SweepInterval, expire)
	}

	if opts.WatchActive {
		dw, err := newDirWatcher(opts.WatchDebounce)
		if err != nil {
			return nil, err
		}
		b.watcher = dw
		go b.watchLoop()
	}

	return b, nil
}

// OpenFolder makes path the active folder and returns a View over it.
// Tier order: in-memory session (cursor rewound), persisted snapshot
// (entries pre-resolved), cold enumeration. Opening a folder ends the
// previous folder's session per the persistence policy.
func (b *Browser) OpenFolder(ctx context.Context, path string) (*View, error) {
	path = filepath.Clean(path)

	b.mu.Lock()
	old := b.active
	if old != "" && old != path {
		b.switchAwayLocked(old)
	}
	if b.activeCancel != nil {
		b.activeCancel()
	}
	b.activeCtx, b.activeCancel = context.WithCancel(context.Background())
	b.active = path

	if st, ok := b.sessions[path]; ok {
		st.sess.ResetCursor()
		b.mu.Unlock()
		b.rewatch(old, path)
		logging.Debug("open: memory tier", zap.String("path", path), zap.String("session", st.sess.ID))
		return &View{b: b, path: path}, nil
	}
	b.mu.Unlock()

	st, err := b.loadState(ctx, path)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.active == path {
		b.sessions[path] = st
	}
	b.mu.Unlock()

	b.rewatch(old, path)
	return &View{b: b, path: path}, nil
}

// loadState consults the persistent tier, then falls back to cold
// enumeration. Persistence-tier corruption degrades to cold rather than
// surfacing to the caller.
func (b *Browser) loadState(ctx context.Context, path string) (*folderState, error) {
	if b.store != nil {
		snap, err := b.store.Get(ctx, path)
		switch {
		case err != nil:
			logging.Warn("open: snapshot unreadable, treating folder as cold",
				zap.String("path", path), zap.Error(err))
			b.background(func() { b.store.Delete(context.Background(), path) })
		case snap != nil:
			logging.Debug("open: snapshot tier",
				zap.String("path", path), zap.Int("entries", len(snap.Entries)))
			return &folderState{sess: resolve.Restored(path, snap.Entries), persist: true}, nil
		}
	}

	dirents, err := b.enum.List(ctx, path)
	if err != nil {
		return nil, err
	}
	logging.Debug("open: cold tier", zap.String("path", path), zap.Int("dirents", len(dirents)))
	return &folderState{sess: resolve.NewSession(path, dirents)}, nil
}

// switchAwayLocked ends the outgoing folder's session: persisted to the
// slow tier when flagged, otherwise dropped along with any stale
// snapshot. The slow-tier write never blocks the incoming folder.
func (b *Browser) switchAwayLocked(old string) {
	st, ok := b.sessions[old]
	if !ok {
		return
	}
	delete(b.sessions, old)

	if b.store == nil {
		return
	}
	if st.persist || b.policy(old) {
		snap := &store.Snapshot{
			Path:        old,
			Entries:     st.sess.Resolved(),
			LastVisited: time.Now(),
		}
		b.background(func() {
			if err := b.store.Put(context.Background(), snap); err != nil {
				logging.Warn("switch: snapshot write failed", zap.String("path", old), zap.Error(err))
			}
		})
		return
	}
	b.background(func() { b.store.Delete(context.Background(), old) })
}

// Resolved returns a copy of the entries resolved so far for a folder
// held in memory.
func (b *Browser) Resolved(path string) ([]resolve.Entry, bool) {
	b.mu.Lock()
	st, ok := b.sessions[filepath.Clean(path)]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}
	return st.sess.Resolved(), true
}

// Remember flags whether the folder's session survives the next switch,
// overriding the policy for that folder.
func (b *Browser) Remember(path string, remember bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.sessions[filepath.Clean(path)]; ok {
		st.persist = remember
	}
}

// Invalidate drops a folder's session and purges its snapshot, e.g.
// after its contents changed on disk. If the folder is active, pending
// resolution steps abort and the UI must re-open it.
func (b *Browser) Invalidate(path string) {
	path = filepath.Clean(path)

	b.mu.Lock()
	_, had := b.sessions[path]
	delete(b.sessions, path)
	if path == b.active && b.activeCancel != nil {
		b.activeCancel()
	}
	b.mu.Unlock()

	if had {
		logging.Debug("invalidate", zap.String("path", path))
	}
	if b.store != nil {
		b.background(func() { b.store.Delete(context.Background(), path) })
	}
}

// Close ends the active session (persisting it when flagged), stops the
// background workers, and waits for in-flight slow-tier writes.
func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		if b.active != "" {
			b.switchAwayLocked(b.active)
			b.active = ""
		}
		if b.activeCancel != nil {
			b.activeCancel()
		}
		b.mu.Unlock()

		if b.sweepStop != nil {
			close(b.sweepStop)
		}
		if b.watcher != nil {
			b.watcher.Close()
		}
		b.wg.Wait()
	})
}

func (b *Browser) background(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

func (b *Browser) rewatch(old, active string) {
	if b.watcher == nil {
		return
	}
	if old != "" && old != active {
		b.watcher.Unwatch(old)
	}
	if err := b.watcher.Watch(active); err != nil {
		logging.Debug("watch failed", zap.String("path", active), zap.Error(err))
	}
}

func (b *Browser) watchLoop() {
	for path := range b.watcher.Notify() {
		logging.Debug("watch: folder changed", zap.String("path", path))
		b.Invalidate(path)
	}
}

func (b *Browser) sweepLoop(interval, expire time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.sweepStop:
			return
		case <-ticker.C:
			n, err := b.store.Sweep(context.Background(), expire)
			if err != nil {
				logging.Warn("sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logging.Info("sweep: expired snapshots removed", zap.Int("count", n))
			}
		}
	}
}
