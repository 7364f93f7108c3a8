// Package media classifies filesystem entries by their media type.
// A file is "compatible" when its extension is in the fixed image or
// video allow-list; everything else is invisible to resolution.
package media

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the thumbnail/media type of a path.
type Kind int

const (
	KindNone Kind = iota
	KindImage
	KindVideo
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".flv":  true,
	".wmv":  true,
	".webm": true,
	".ts":   true,
}

// Classify returns the media kind for a file name or path.
func Classify(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	default:
		return KindNone
	}
}

// IsCompatible reports whether the file name matches the image or video allow-list.
func IsCompatible(name string) bool {
	return Classify(name) != KindNone
}

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "none"
	}
}

// MarshalJSON encodes the kind as its string name so snapshots stay
// readable and stable across releases.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "image":
		*k = KindImage
	case "video":
		*k = KindVideo
	case "none", "":
		*k = KindNone
	default:
		return fmt.Errorf("unknown media kind %q", s)
	}
	return nil
}
