// Package image provides document image loading, saving, and region
// extraction for the formats the label tooling works with.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"label-editor/pkg/geometry"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedFormat reports an image that cannot be decoded or an output
// extension that cannot be encoded.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// jpegQuality matches the quality the original files were written with.
const jpegQuality = 95

// Load decodes an image from disk. WebP falls back to its own decoder since
// the stdlib registry only handles lossy-capable formats via x/image.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err == nil {
		return img, nil
	}

	if _, serr := file.Seek(0, 0); serr == nil {
		if img, werr := webp.Decode(file); werr == nil {
			return img, nil
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, path, err)
}

// Dims returns the pixel dimensions of an image.
func Dims(img image.Image) geometry.Dims {
	b := img.Bounds()
	return geometry.NewDims(b.Dx(), b.Dy())
}

// Region returns the part of img covered by rect, clamped to the image
// bounds. Used to clip OCR input to a label rectangle.
func Region(img image.Image, rect geometry.RectInt) image.Image {
	return imaging.Crop(img, image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height))
}

// SaveAtomic encodes img to path by writing to a temporary file in the same
// directory and renaming it into place, so a failed write never leaves a
// truncated image behind. The format is chosen from the file extension.
func SaveAtomic(img image.Image, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, img, path); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close image: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func encode(f *os.File, img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".webp" {
		if err := webp.Encode(f, img, &webp.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return nil
	}

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
