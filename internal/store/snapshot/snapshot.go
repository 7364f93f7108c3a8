// Package snapshot stores folder snapshots as gzip-compressed JSON
// files, one per folder path, named deterministically from the path.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/justyntemme/prism/internal/store"
)

const fileExt = ".json.gz"

// Files is the compressed-snapshot backend.
type Files struct {
	dir string
}

// New creates the backend, making the snapshot directory if needed.
func New(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Files{dir: dir}, nil
}

// fileName derives a deterministic file name from an absolute folder path.
func (f *Files) fileName(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:16])+fileExt)
}

// Put writes the snapshot atomically: temp file, then rename.
func (f *Files) Put(ctx context.Context, snap *store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.fileName(snap.Path)
	tmp := target + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	gz := gzip.NewWriter(out)
	encErr := json.NewEncoder(gz).Encode(snap)
	if err := gz.Close(); encErr == nil {
		encErr = err
	}
	if err := out.Close(); encErr == nil {
		encErr = err
	}
	if encErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot %s: %w", snap.Path, encErr)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Get reads the snapshot for a path. A missing file is (nil, nil); a
// file that cannot be decoded is an error so the caller can purge it.
// Reading refreshes the file's visit timestamp.
func (f *Files) Get(ctx context.Context, path string) (*store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := f.fileName(path)
	in, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %s: %w", path, err)
	}
	defer gz.Close()

	var snap store.Snapshot
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	now := time.Now()
	os.Chtimes(name, now, now)
	snap.LastVisited = now
	return &snap, nil
}

// Delete removes the snapshot file for a path.
func (f *Files) Delete(_ context.Context, path string) error {
	err := os.Remove(f.fileName(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot %s: %w", path, err)
	}
	return nil
}

// List returns the folder path of every stored snapshot. Unreadable
// files are skipped.
func (f *Files) List(ctx context.Context) ([]string, error) {
	names, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var paths []string
	for _, d := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			continue
		}
		snap, err := f.read(filepath.Join(f.dir, d.Name()))
		if err != nil {
			continue
		}
		paths = append(paths, snap.Path)
	}
	return paths, nil
}

// Sweep removes snapshot files whose visit timestamp (the file mtime,
// kept current by Put and Get) is older than the cutoff.
func (f *Files) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	names, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("read snapshot dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, d := range names {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(f.dir, d.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (f *Files) Close() error { return nil }

func (f *Files) read(name string) (*store.Snapshot, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var snap store.Snapshot
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
