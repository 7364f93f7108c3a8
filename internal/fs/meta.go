package fs

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/justyntemme/prism/internal/media"
)

// Meta holds best-effort metadata for a resolved entry. Fields are left
// zero when the platform or the file cannot provide them.
type Meta struct {
	Size     int64
	Created  time.Time
	Modified time.Time
	Taken    time.Time
}

// ReadMeta stats a path and, for images, extracts the EXIF capture date.
// A stat failure returns the error alongside a zero Meta; an image
// without EXIF data is not an error.
func ReadMeta(path string, kind media.Kind) (Meta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, fmt.Errorf("stat %s: %w", path, err)
	}

	m := Meta{
		Size:     info.Size(),
		Modified: info.ModTime(),
		Created:  birthTime(info),
	}

	if kind == media.KindImage {
		m.Taken = dateTaken(path)
	}
	return m, nil
}

// dateTaken extracts the EXIF DateTimeOriginal from an image file.
// Returns the zero time when the file has no usable EXIF block.
func dateTaken(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return t
}
