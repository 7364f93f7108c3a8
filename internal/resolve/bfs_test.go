package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/justyntemme/prism/internal/fs"
	"github.com/justyntemme/prism/internal/media"
)

// fakeEnum serves canned listings keyed by path so tests control
// enumeration order exactly. Paths not in the map are errors, like a
// folder deleted mid-browse.
type fakeEnum struct {
	dirs  map[string][]fs.RawDirent
	calls int
}

func (f *fakeEnum) List(ctx context.Context, path string) ([]fs.RawDirent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls++
	dirents, ok := f.dirs[path]
	if !ok {
		return nil, errors.New("no such directory")
	}
	return dirents, nil
}

func file(dir, name string) fs.RawDirent {
	kind := media.Classify(name)
	return fs.RawDirent{
		Name:         name,
		Path:         filepath.Join(dir, name),
		IsCompatible: kind != media.KindNone,
		Kind:         kind,
	}
}

func subdir(dir, name string) fs.RawDirent {
	return fs.RawDirent{Name: name, Path: filepath.Join(dir, name), IsDir: true}
}

func TestResolve_DirectMedia(t *testing.T) {
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/lib/trip": {file("/lib/trip", "cover.jpg")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/lib/trip")
	if !ok {
		t.Fatal("expected a find")
	}
	if found.ThumbnailPath != "/lib/trip/cover.jpg" {
		t.Errorf("ThumbnailPath = %q", found.ThumbnailPath)
	}
	if found.Kind != media.KindImage {
		t.Errorf("Kind = %v, want image", found.Kind)
	}
	// Media directly inside the searched folder keeps it as the target.
	if found.EffectivePath != "/lib/trip" {
		t.Errorf("EffectivePath = %q, want /lib/trip", found.EffectivePath)
	}
}

func TestResolve_NestedMediaEffectivePath(t *testing.T) {
	// trip/ holds only vacation/, the media is one level down. The
	// entry should open vacation's parent, which here is trip itself.
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/lib/trip":          {subdir("/lib/trip", "vacation")},
		"/lib/trip/vacation": {file("/lib/trip/vacation", "beach.png")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/lib/trip")
	if !ok {
		t.Fatal("expected a find")
	}
	if found.ThumbnailPath != "/lib/trip/vacation/beach.png" {
		t.Errorf("ThumbnailPath = %q", found.ThumbnailPath)
	}
	if found.EffectivePath != "/lib/trip" {
		t.Errorf("EffectivePath = %q, want /lib/trip", found.EffectivePath)
	}
}

func TestResolve_DeeplyNestedEffectivePath(t *testing.T) {
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r":     {subdir("/r", "a")},
		"/r/a":   {subdir("/r/a", "b")},
		"/r/a/b": {file("/r/a/b", "pic.jpg")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/r")
	if !ok {
		t.Fatal("expected a find")
	}
	// The media lives in b, so the target is b's parent.
	if found.EffectivePath != "/r/a" {
		t.Errorf("EffectivePath = %q, want /r/a", found.EffectivePath)
	}
}

func TestResolve_BudgetCountsDequeues(t *testing.T) {
	// A chain of 11 folders with media only at the end. Budget 10
	// dequeues folders 0..9 and never reaches the file.
	dirs := map[string][]fs.RawDirent{}
	path := "/chain"
	for i := 0; i < 10; i++ {
		child := filepath.Join(path, "d")
		dirs[path] = []fs.RawDirent{subdir(path, "d")}
		path = child
	}
	dirs[path] = []fs.RawDirent{file(path, "last.jpg")}

	enum := &fakeEnum{dirs: dirs}
	if _, ok := NewResolver(enum, 10).Resolve(context.Background(), "/chain"); ok {
		t.Error("budget of 10 should not reach the 11th folder")
	}
	if enum.calls != 10 {
		t.Errorf("enumerated %d folders, want 10", enum.calls)
	}

	// One more dequeue finds it.
	enum.calls = 0
	if _, ok := NewResolver(enum, 11).Resolve(context.Background(), "/chain"); !ok {
		t.Error("budget of 11 should find the file")
	}
}

func TestResolve_BreadthFirstOrder(t *testing.T) {
	// Media sits in the second sibling; depth-first through the first
	// sibling's deep subtree would find the wrong file.
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r":       {subdir("/r", "x"), subdir("/r", "y")},
		"/r/x":     {subdir("/r/x", "deep")},
		"/r/y":     {file("/r/y", "shallow.jpg")},
		"/r/x/deep": {file("/r/x/deep", "far.jpg")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/r")
	if !ok {
		t.Fatal("expected a find")
	}
	if found.ThumbnailPath != "/r/y/shallow.jpg" {
		t.Errorf("ThumbnailPath = %q, want the shallow sibling file", found.ThumbnailPath)
	}
}

func TestResolve_FirstInEnumerationOrderWins(t *testing.T) {
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r": {file("/r", "z.mp4"), file("/r", "a.jpg")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/r")
	if !ok {
		t.Fatal("expected a find")
	}
	if found.ThumbnailPath != "/r/z.mp4" {
		t.Errorf("ThumbnailPath = %q, want first entry in enumeration order", found.ThumbnailPath)
	}
	if found.Kind != media.KindVideo {
		t.Errorf("Kind = %v, want video", found.Kind)
	}
}

func TestResolve_UnreadableSubfolderSkipped(t *testing.T) {
	// "broken" is not in the map, so listing it fails; the search must
	// carry on to the next queued folder.
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r":    {subdir("/r", "broken"), subdir("/r", "ok")},
		"/r/ok": {file("/r/ok", "found.png")},
	}}

	found, ok := NewResolver(enum, 0).Resolve(context.Background(), "/r")
	if !ok {
		t.Fatal("expected a find despite the unreadable sibling")
	}
	if found.ThumbnailPath != "/r/ok/found.png" {
		t.Errorf("ThumbnailPath = %q", found.ThumbnailPath)
	}
}

func TestResolve_NothingFound(t *testing.T) {
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r":       {subdir("/r", "empty"), file("/r", "readme.txt")},
		"/r/empty": {},
	}}

	if _, ok := NewResolver(enum, 0).Resolve(context.Background(), "/r"); ok {
		t.Error("expected no find in a media-free tree")
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	enum := &fakeEnum{dirs: map[string][]fs.RawDirent{
		"/r": {file("/r", "a.jpg")},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := NewResolver(enum, 0).Resolve(ctx, "/r"); ok {
		t.Error("cancelled search must not produce a find")
	}
	if enum.calls != 0 {
		t.Errorf("cancelled search enumerated %d folders", enum.calls)
	}
}
