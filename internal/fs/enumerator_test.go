package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/justyntemme/prism/internal/media"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestList_SingleLevel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	if err := os.MkdirAll(filepath.Join(dir, "sub", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub", "deep.png"))

	dirents, err := NewLocal().List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	names := make(map[string]RawDirent, len(dirents))
	for _, d := range dirents {
		names[d.Name] = d
	}
	if len(names) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(names), sortedNames(dirents))
	}
	// Nested content must not appear.
	if _, ok := names["deep.png"]; ok {
		t.Error("nested file leaked into the listing")
	}
	if _, ok := names["nested"]; ok {
		t.Error("nested directory leaked into the listing")
	}

	jpg := names["a.jpg"]
	if jpg.IsDir || !jpg.IsCompatible || jpg.Kind != media.KindImage {
		t.Errorf("a.jpg classified wrong: %+v", jpg)
	}
	txt := names["notes.txt"]
	if txt.IsDir || txt.IsCompatible || txt.Kind != media.KindNone {
		t.Errorf("notes.txt classified wrong: %+v", txt)
	}
	sub := names["sub"]
	if !sub.IsDir || sub.IsCompatible {
		t.Errorf("sub classified wrong: %+v", sub)
	}
}

func TestList_DirentPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"))

	dirents, err := NewLocal().List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(dirents) != 1 {
		t.Fatalf("got %d entries, want 1", len(dirents))
	}
	if want := filepath.Join(dir, "a.jpg"); dirents[0].Path != want {
		t.Errorf("Path = %q, want %q", dirents[0].Path, want)
	}
}

func TestList_MissingRoot(t *testing.T) {
	_, err := NewLocal().List(context.Background(), filepath.Join(t.TempDir(), "gone"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Errorf("error type = %T, want *EnumerationError", err)
	}
}

func TestList_PermissionDeniedRoot(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	dirents, err := NewLocal().List(context.Background(), locked)
	if err != nil {
		t.Fatalf("permission error should degrade to empty, got %v", err)
	}
	if len(dirents) != 0 {
		t.Errorf("got %d entries, want 0", len(dirents))
	}
}

func TestList_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal().List(ctx, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func sortedNames(dirents []RawDirent) []string {
	out := make([]string, len(dirents))
	for i, d := range dirents {
		out[i] = d.Name
	}
	sort.Strings(out)
	return out
}
