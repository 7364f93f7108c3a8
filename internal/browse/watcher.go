package browse

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/logging"
)

// dirWatcher watches directories for changes and reports which watched
// directory needs invalidating, debounced so bursts of writes collapse
// into one notification.
type dirWatcher struct {
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	watching   map[string]bool
	notify     chan string
	done       chan struct{}
	debounceMs int
}

func newDirWatcher(debounceMs int) (*dirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 200
	}

	dw := &dirWatcher{
		watcher:    w,
		watching:   make(map[string]bool),
		notify:     make(chan string, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}
	go dw.run()
	return dw, nil
}

func (dw *dirWatcher) run() {
	lastEvent := make(map[string]time.Time)
	pending := make(map[string]bool)
	ticker := time.NewTicker(time.Duration(dw.debounceMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write) {
				parentDir := filepath.Dir(event.Name)

				dw.mu.Lock()
				if dw.watching[parentDir] {
					lastEvent[parentDir] = time.Now()
					pending[parentDir] = true
				} else if dw.watching[event.Name] {
					lastEvent[event.Name] = time.Now()
					pending[event.Name] = true
				}
				dw.mu.Unlock()
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			logging.Debug("watcher error", zap.Error(err))

		case <-ticker.C:
			now := time.Now()
			debounce := time.Duration(dw.debounceMs) * time.Millisecond
			for dir, isPending := range pending {
				if isPending && now.Sub(lastEvent[dir]) >= debounce {
					select {
					case dw.notify <- dir:
					default:
						// Channel full, skip.
					}
					delete(pending, dir)
					delete(lastEvent, dir)
				}
			}
		}
	}
}

func (dw *dirWatcher) Watch(path string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[path] {
		return nil
	}
	if err := dw.watcher.Add(path); err != nil {
		return err
	}
	dw.watching[path] = true
	return nil
}

func (dw *dirWatcher) Unwatch(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.watching[path] {
		return
	}
	// Removal errors are ignored; the path may already be gone.
	dw.watcher.Remove(path)
	delete(dw.watching, path)
}

func (dw *dirWatcher) Notify() <-chan string {
	return dw.notify
}

func (dw *dirWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
