// Package thumb turns media file paths into small JPEG thumbnails and
// caches the results. Image decoding is the only part of the pipeline
// that touches pixel data; everything above consumes paths.
package thumb

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"

	// Register decoders for the extension allow-list beyond the
	// stdlib formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/justyntemme/prism/internal/media"
)

const (
	// DefaultMaxPixels is the maximum thumbnail dimension.
	DefaultMaxPixels = 400
	jpegQuality      = 80
)

// Placeholder is the fixed fallback thumbnail, a neutral gray tile
// rendered once at startup. It is served whenever generation fails.
var Placeholder = renderPlaceholder()

// Generator produces thumbnail bytes for a media file.
type Generator interface {
	Make(path string, maxPixels int) ([]byte, error)
}

// ImageGenerator decodes image files and scales them down with
// Lanczos resampling. Video files get the placeholder; frame
// extraction belongs to an external player, not this package.
type ImageGenerator struct{}

func NewImageGenerator() *ImageGenerator { return &ImageGenerator{} }

func (g *ImageGenerator) Make(path string, maxPixels int) ([]byte, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if media.Classify(path) != media.KindImage {
		return Placeholder, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Placeholder, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Placeholder, fmt.Errorf("decode %s: %w", path, err)
	}

	fitted := imaging.Fit(img, maxPixels, maxPixels, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Placeholder, fmt.Errorf("encode %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func renderPlaceholder() []byte {
	img := imaging.New(16, 16, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil
	}
	return buf.Bytes()
}
