// Package fs enumerates directory entries and classifies them for resolution.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/justyntemme/prism/internal/logging"
	"github.com/justyntemme/prism/internal/media"
)

// RawDirent is one filesystem entry as seen by the OS. Immutable once
// produced; it lives for a single enumeration pass.
type RawDirent struct {
	Name         string
	Path         string
	IsDir        bool
	IsCompatible bool
	Kind         media.Kind
}

// EnumerationError is the fatal enumeration failure for a folder root.
// Permission errors never produce one; they degrade to an empty listing.
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Enumerator lists the direct children of a directory.
type Enumerator interface {
	List(ctx context.Context, path string) ([]RawDirent, error)
}

// Local enumerates directories on the local filesystem.
type Local struct{}

func NewLocal() *Local { return &Local{} }

// List reads a single directory level. Entries come back in enumeration
// order, unsorted. A permission error on the root yields an empty slice
// and a nil error; any other I/O error is returned as *EnumerationError.
func (l *Local) List(ctx context.Context, path string) ([]RawDirent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []RawDirent
	var mu sync.Mutex
	var rootErr error

	conf := &fastwalk.Config{Follow: true}
	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if fullPath == path {
				rootErr = err
				return err
			}
			// Unreadable child entries are skipped, never fatal.
			logging.Debug("enumerate: skipping entry", zap.String("path", fullPath), zap.Error(err))
			return nil
		}
		if fullPath == path {
			return nil
		}

		// Only direct children. fullPath is prefixed by path, so a
		// separator in the remainder means a nested entry.
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		dirent := RawDirent{
			Name:  d.Name(),
			Path:  fullPath,
			IsDir: d.IsDir(),
		}
		if !dirent.IsDir {
			dirent.Kind = media.Classify(dirent.Name)
			dirent.IsCompatible = dirent.Kind != media.KindNone
		}

		mu.Lock()
		result = append(result, dirent)
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if rootErr != nil && errors.Is(rootErr, iofs.ErrPermission) {
			logging.Warn("enumerate: permission denied", zap.String("path", path))
			return nil, nil
		}
		return nil, &EnumerationError{Path: path, Err: err}
	}
	return result, nil
}
