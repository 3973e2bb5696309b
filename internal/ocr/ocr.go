// Package ocr provides pluggable OCR engines for recognizing text in label
// regions of document images.
package ocr

import (
	"context"
	"fmt"
	"image"

	"label-editor/internal/label"
)

// Result is the outcome of recognizing one image region.
type Result struct {
	Text       string
	Confidence float64
	Metadata   map[string]string
}

// Engine recognizes text in an image region. The region is already clipped
// to a label rectangle in the current frame; the class supplies the field
// hint that drives pre- and postprocessing.
type Engine interface {
	Recognize(ctx context.Context, region image.Image, class label.Class) (Result, error)
	Close() error
}

// NewEngine creates an engine by name. The empty name selects tesseract.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "tesseract", "":
		return NewTesseractEngine()
	case "ollama":
		return NewOllamaEngine("", "")
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", name)
	}
}
