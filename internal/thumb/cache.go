package thumb

import (
	"container/list"
	"sync"

	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/logging"
)

// Cache provides an LRU cache for generated thumbnails, filled by a
// background loader so callers never block on decoding.
type Cache struct {
	mu      sync.RWMutex
	cache   map[string]*cacheEntry // path -> entry
	lru     *list.List             // front = most recent
	maxSize int
	pixels  int
	gen     Generator

	pendingMu sync.Mutex
	pending   map[string]bool
	loadChan  chan string
	stopChan  chan struct{}
	stopOnce  sync.Once
}

type cacheEntry struct {
	path    string
	data    []byte
	element *list.Element
}

// NewCache creates a thumbnail cache holding at most maxEntries
// thumbnails of at most maxPixels dimension each.
func NewCache(gen Generator, maxEntries, maxPixels int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	c := &Cache{
		cache:    make(map[string]*cacheEntry),
		lru:      list.New(),
		maxSize:  maxEntries,
		pixels:   maxPixels,
		gen:      gen,
		pending:  make(map[string]bool),
		loadChan: make(chan string, 100),
		stopChan: make(chan struct{}),
	}
	go c.backgroundLoader()
	return c
}

// Get retrieves thumbnail bytes from the cache.
func (c *Cache) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[path]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.data, true
}

// Request queues a path for background loading. Does nothing if the
// path is already cached or being loaded.
func (c *Cache) Request(path string) {
	c.mu.RLock()
	_, cached := c.cache[path]
	c.mu.RUnlock()
	if cached {
		return
	}

	c.pendingMu.Lock()
	if c.pending[path] {
		c.pendingMu.Unlock()
		return
	}
	c.pending[path] = true
	c.pendingMu.Unlock()

	select {
	case c.loadChan <- path:
	default:
		// Channel full, drop this request.
		c.pendingMu.Lock()
		delete(c.pending, path)
		c.pendingMu.Unlock()
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]*cacheEntry)
	c.lru = list.New()
	c.mu.Unlock()

	c.pendingMu.Lock()
	c.pending = make(map[string]bool)
	c.pendingMu.Unlock()
}

// Size returns the current number of cached thumbnails.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stop shuts down the background loader.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache) backgroundLoader() {
	for {
		select {
		case <-c.stopChan:
			return
		case path := <-c.loadChan:
			c.load(path)
		}
	}
}

func (c *Cache) load(path string) {
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, path)
		c.pendingMu.Unlock()
	}()

	data, err := c.gen.Make(path, c.pixels)
	if err != nil {
		// Generation failures still yield the placeholder bytes.
		logging.Debug("thumb: generation failed", zap.String("path", path), zap.Error(err))
	}
	if data == nil {
		return
	}
	c.put(path, data)
}

func (c *Cache) put(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache[path]; ok {
		entry.data = data
		c.lru.MoveToFront(entry.element)
		return
	}

	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		old := oldest.Value.(*cacheEntry)
		delete(c.cache, old.path)
		c.lru.Remove(oldest)
	}

	entry := &cacheEntry{path: path, data: data}
	entry.element = c.lru.PushFront(entry)
	c.cache[path] = entry
}
