package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/prism/internal/media"
	"github.com/justyntemme/prism/internal/resolve"
	"github.com/justyntemme/prism/internal/store"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prism.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(path string) *store.Snapshot {
	return &store.Snapshot{
		Path: path,
		Entries: []resolve.Entry{
			{
				Index:         0,
				Title:         "clip.mp4",
				SourcePath:    path,
				IsMedia:       true,
				Path:          filepath.Join(path, "clip.mp4"),
				ThumbnailPath: filepath.Join(path, "clip.mp4"),
				ThumbnailKind: media.KindVideo,
				Size:          2048,
			},
		},
		LastVisited: time.Now(),
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	want := testSnapshot("/videos")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "/videos")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a stored snapshot")
	}
	if got.Path != "/videos" {
		t.Errorf("Path = %q", got.Path)
	}
	if len(got.Entries) != 1 || got.Entries[0] != want.Entries[0] {
		t.Errorf("entries changed:\n want: %+v\n  got: %+v", want.Entries, got.Entries)
	}
}

func TestGet_Absent(t *testing.T) {
	s := openTest(t)
	snap, err := s.Get(context.Background(), "/missing")
	if err != nil {
		t.Fatalf("absent snapshot must be (nil, nil), got error %v", err)
	}
	if snap != nil {
		t.Errorf("absent snapshot returned %+v", snap)
	}
}

func TestPut_Upsert(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.Put(ctx, testSnapshot("/videos")); err != nil {
		t.Fatal(err)
	}

	updated := testSnapshot("/videos")
	updated.Entries[0].Title = "renamed.mp4"
	if err := s.Put(ctx, updated); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := s.Get(ctx, "/videos")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("upsert duplicated: %d entries", len(got.Entries))
	}
	if got.Entries[0].Title != "renamed.mp4" {
		t.Errorf("upsert kept the old row: %+v", got.Entries[0])
	}

	paths, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Errorf("List has %d rows after upsert, want 1", len(paths))
	}
}

func TestDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.Put(ctx, testSnapshot("/videos")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "/videos"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if snap, err := s.Get(ctx, "/videos"); err != nil || snap != nil {
		t.Errorf("deleted snapshot still readable: %+v, %v", snap, err)
	}
	if err := s.Delete(ctx, "/videos"); err != nil {
		t.Errorf("deleting an absent row: %v", err)
	}
}

func TestSweep_RemovesOnlyStale(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	old := testSnapshot("/old")
	old.LastVisited = time.Now().Add(-48 * time.Hour)
	if err := s.Put(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testSnapshot("/fresh")); err != nil {
		t.Fatal(err)
	}

	n, err := s.Sweep(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep removed %d rows, want 1", n)
	}
	if snap, _ := s.Get(ctx, "/old"); snap != nil {
		t.Error("stale snapshot survived the sweep")
	}
	if snap, _ := s.Get(ctx, "/fresh"); snap == nil {
		t.Error("fresh snapshot was swept")
	}
}

func TestGet_RefreshesVisitTime(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	old := testSnapshot("/photos")
	old.LastVisited = time.Now().Add(-48 * time.Hour)
	if err := s.Put(ctx, old); err != nil {
		t.Fatal(err)
	}

	// Reading counts as a visit, so the following sweep keeps the row.
	if _, err := s.Get(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Sweep(ctx, 24*time.Hour); err != nil || n != 0 {
		t.Errorf("Sweep after Get removed %d, err %v", n, err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prism.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testSnapshot("/videos")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	snap, err := s2.Get(ctx, "/videos")
	if err != nil || snap == nil {
		t.Fatalf("snapshot lost across reopen: %+v, %v", snap, err)
	}
}
