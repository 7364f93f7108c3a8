package resolve

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/media"
)

// Entry is a display-ready record for one folder entry.
type Entry struct {
	// Index is the position in resolution order, stable within one
	// folder session. Unique and monotonically increasing.
	Index int `json:"index"`
	Title string `json:"title"`
	// SourcePath is the folder this entry belongs to, used to detect
	// stale entries after a folder switch.
	SourcePath string `json:"source_path"`
	// IsMedia is true for a playable file, false for a folder.
	IsMedia bool `json:"is_media"`
	// Path is the file path for media. For a folder it is the nearest
	// valid ancestor of the discovered media, which may differ from
	// the folder itself when the media sits deeper in the tree.
	Path          string     `json:"path"`
	ThumbnailPath string     `json:"thumbnail_path"`
	ThumbnailKind media.Kind `json:"thumbnail_kind"`
	Size          int64      `json:"size"`
	SizeLabel     string     `json:"size_label,omitempty"`
	DateCreated   time.Time  `json:"date_created"`
	DateModified  time.Time  `json:"date_modified"`
	DateTaken     time.Time  `json:"date_taken"`
}

// Session is the per-folder resolution state: the raw entries still to
// resolve, the resolved records keyed by title, and the pull cursor.
// Sessions are owned by the browse cache; the pipeline mutates them one
// step at a time.
type Session struct {
	ID         string
	SourcePath string

	mu         sync.Mutex
	unresolved []fs.RawDirent
	resolved   []Entry
	byTitle    map[string]int  // title -> index into resolved
	skipped    map[string]bool // titles that resolved to nothing
	cursor     int
	nextIndex  int
}

// NewSession creates a cold session from a fresh enumeration.
func NewSession(path string, dirents []fs.RawDirent) *Session {
	return &Session{
		ID:         uuid.NewString(),
		SourcePath: path,
		unresolved: dirents,
		byTitle:    make(map[string]int),
		skipped:    make(map[string]bool),
	}
}

// Restored rebuilds a session from persisted entries. The entries are
// treated as already resolved: the cursor replays them in order without
// touching the filesystem.
func Restored(path string, entries []Entry) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		SourcePath: path,
		byTitle:    make(map[string]int, len(entries)),
		skipped:    make(map[string]bool),
	}
	for i, e := range entries {
		e.SourcePath = path
		s.resolved = append(s.resolved, e)
		s.byTitle[e.Title] = i
		if e.Index >= s.nextIndex {
			s.nextIndex = e.Index + 1
		}
		// Synthetic dirents let the cursor walk the restored set
		// through the same cached-result state as a live session.
		s.unresolved = append(s.unresolved, fs.RawDirent{
			Name:         e.Title,
			Path:         e.Path,
			IsDir:        !e.IsMedia,
			IsCompatible: e.IsMedia,
			Kind:         e.ThumbnailKind,
		})
	}
	return s
}

// ResetCursor rewinds the pull cursor so a revisit re-renders from the
// top using already-resolved entries.
func (s *Session) ResetCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
}

// Resolved returns a copy of the resolved entries in resolution order.
func (s *Session) Resolved() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.resolved))
	copy(out, s.resolved)
	return out
}

// Pending returns the number of raw entries the cursor has not passed yet.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.unresolved) {
		return 0
	}
	return len(s.unresolved) - s.cursor
}

// upsertLocked inserts an entry or overwrites the record with the same
// title in place. A replacement keeps the original index so an index,
// once emitted, never moves. Must be called with s.mu held.
func (s *Session) upsertLocked(e Entry) Entry {
	if i, ok := s.byTitle[e.Title]; ok {
		e.Index = s.resolved[i].Index
		s.resolved[i] = e
		return e
	}
	e.Index = s.nextIndex
	s.nextIndex++
	s.byTitle[e.Title] = len(s.resolved)
	s.resolved = append(s.resolved, e)
	return e
}
