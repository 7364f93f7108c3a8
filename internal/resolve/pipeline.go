package resolve

import (
	"context"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/thumb"
)

// Status is the tri-state result of one resolution step.
type Status int

const (
	// StatusNone means no entry was produced this step; the caller
	// may try again. Skipped entries and cancelled steps both land here.
	StatusNone Status = iota
	// StatusEntry means an entry was produced.
	StatusEntry
	// StatusDone is terminal: every raw entry has been passed.
	StatusDone
)

// Pipeline resolves one raw entry per step, delegating directory
// entries to the bounded thumbnail search.
type Pipeline struct {
	resolver *Resolver
	thumbs   *thumb.Cache // optional; warms thumbnails for emitted media
}

func NewPipeline(resolver *Resolver) *Pipeline {
	return &Pipeline{resolver: resolver}
}

// WarmThumbnails makes the pipeline queue background thumbnail
// generation for every media entry it emits.
func (p *Pipeline) WarmThumbnails(cache *thumb.Cache) {
	p.thumbs = cache
}

// ResolveNext advances the session by one raw entry.
//
// Returns (entry, StatusEntry) when the step produced a record,
// (nil, StatusNone) when the step skipped an entry or was cancelled,
// and (nil, StatusDone) once the session is exhausted. Failures never
// escape: they degrade the entry or skip it.
func (p *Pipeline) ResolveNext(ctx context.Context, s *Session) (*Entry, Status) {
	s.mu.Lock()
	if s.cursor >= len(s.unresolved) {
		s.mu.Unlock()
		return nil, StatusDone
	}
	cursor := s.cursor
	raw := s.unresolved[cursor]

	// Cached result: the entry for this cursor position already
	// exists, typically after a cursor reset on revisit.
	if i, ok := s.byTitle[raw.Name]; ok {
		s.cursor++
		e := s.resolved[i]
		s.mu.Unlock()
		p.warm(&e)
		return &e, StatusEntry
	}
	// A position that already resolved to nothing stays nothing on a
	// revisit; re-running the search would touch the filesystem again.
	if s.skipped[raw.Name] {
		s.cursor++
		s.mu.Unlock()
		return nil, StatusNone
	}
	s.mu.Unlock()

	// The filesystem work happens without the session lock so a
	// folder switch can cancel a step mid-flight.
	var entry *Entry
	switch {
	case !raw.IsDir && raw.IsCompatible:
		entry = p.resolveFile(raw, s.SourcePath)
	case raw.IsDir:
		entry = p.resolveDir(ctx, raw, s.SourcePath)
	default:
		// Incompatible file: advance with no emission.
	}

	return p.commit(ctx, s, cursor, entry)
}

// commit advances the cursor and appends the entry, unless the step was
// cancelled while the filesystem work was in flight. The cancellation
// check and the mutation happen under the same lock so a stale step can
// never touch the session after its folder went inactive.
func (p *Pipeline) commit(ctx context.Context, s *Session, cursor int, entry *Entry) (*Entry, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, StatusNone
	}
	if s.cursor != cursor {
		// Another step already advanced past this position.
		return nil, StatusNone
	}

	s.cursor++
	if entry == nil {
		s.skipped[s.unresolved[cursor].Name] = true
		return nil, StatusNone
	}
	e := s.upsertLocked(*entry)
	p.warm(&e)
	return &e, StatusEntry
}

func (p *Pipeline) resolveFile(raw fs.RawDirent, source string) *Entry {
	e := &Entry{
		Title:         raw.Name,
		SourcePath:    source,
		IsMedia:       true,
		Path:          raw.Path,
		ThumbnailPath: raw.Path,
		ThumbnailKind: raw.Kind,
	}
	p.populateMeta(e, raw)
	return e
}

func (p *Pipeline) resolveDir(ctx context.Context, raw fs.RawDirent, source string) *Entry {
	found, ok := p.resolver.Resolve(ctx, raw.Path)
	if !ok {
		// No media reachable within the budget: the folder is
		// dropped from the resolved set, not rendered empty.
		return nil
	}
	e := &Entry{
		Title:         raw.Name,
		SourcePath:    source,
		IsMedia:       false,
		Path:          found.EffectivePath,
		ThumbnailPath: found.ThumbnailPath,
		ThumbnailKind: found.Kind,
	}
	p.populateMeta(e, raw)
	return e
}

// populateMeta fills size and date fields best-effort. A stat failure
// leaves them zero and never aborts the entry.
func (p *Pipeline) populateMeta(e *Entry, raw fs.RawDirent) {
	meta, err := fs.ReadMeta(raw.Path, raw.Kind)
	if err != nil {
		logging.Debug("resolve: metadata unavailable", zap.String("path", raw.Path), zap.Error(err))
		return
	}
	e.Size = meta.Size
	e.SizeLabel = humanize.Bytes(uint64(meta.Size))
	e.DateCreated = meta.Created
	e.DateModified = meta.Modified
	e.DateTaken = meta.Taken
}

func (p *Pipeline) warm(e *Entry) {
	if p.thumbs == nil || e.ThumbnailPath == "" {
		return
	}
	p.thumbs.Request(e.ThumbnailPath)
}
