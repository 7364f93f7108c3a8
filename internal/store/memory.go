package store

import (
	"context"
	"sync"
	"time"

	"github.com/justyntemme/prism/internal/resolve"
)

// Memory is a map-backed Store. It is the ephemeral default and the
// backend tests run against.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]Snapshot)}
}

func (m *Memory) Put(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *snap
	s.Entries = append([]resolve.Entry(nil), snap.Entries...)
	m.snaps[snap.Path] = s
	return nil
}

func (m *Memory) Get(_ context.Context, path string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[path]
	if !ok {
		return nil, nil
	}
	out := s
	out.Entries = append([]resolve.Entry(nil), s.Entries...)
	return &out, nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, path)
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.snaps))
	for p := range m.snaps {
		paths = append(paths, p)
	}
	return paths, nil
}

func (m *Memory) Sweep(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for p, s := range m.snaps {
		if s.LastVisited.Before(cutoff) {
			delete(m.snaps, p)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Close() error { return nil }
