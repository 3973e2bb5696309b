package ocr

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"label-editor/internal/label"
)

// defaultWhitelist covers the uppercase Latin and digit fields of identity
// documents.
const defaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// defaultPSM treats a region as a single text line.
const defaultPSM = gosseract.PSM_SINGLE_LINE

// TesseractEngine recognizes text with a local Tesseract installation.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates a Tesseract-backed engine.
func NewTesseractEngine() (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Document fields are codes, numbers, and names, not dictionary words;
	// keep Tesseract from "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &TesseractEngine{client: client}, nil
}

// Close releases Tesseract resources.
func (e *TesseractEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs OCR on a clipped label region. The class field type selects
// the preprocessing pipeline and the text corrections; the class tesseract
// config overrides page segmentation mode and character whitelist.
func (e *TesseractEngine) Recognize(ctx context.Context, region image.Image, class label.Class) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if region == nil || region.Bounds().Empty() {
		return Result{}, fmt.Errorf("empty label region")
	}

	mat, err := gocv.ImageToMatRGB(region)
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert region: %w", err)
	}
	defer mat.Close()

	fieldType := class.FieldType
	if fieldType == "" {
		fieldType = label.FieldText
	}

	processed := preprocessField(mat, fieldType)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode region: %w", err)
	}
	defer buf.Close()

	psm, whitelist := parseTesseractConfig(class.TesseractConfig)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPageSegMode(psm); err != nil {
		return Result{}, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := e.client.SetWhitelist(whitelist); err != nil {
		return Result{}, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}

	words, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("OCR failed: %w", err)
	}

	var parts []string
	var confidences []float64
	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		confidences = append(confidences, w.Confidence)
	}

	text := Postprocess(strings.Join(parts, " "), fieldType, class.RegexPattern)

	confidence := 0.0
	if len(confidences) > 0 {
		confidence = stat.Mean(confidences, nil) / 100.0
	}

	return Result{
		Text:       text,
		Confidence: confidence,
		Metadata: map[string]string{
			"engine":     "tesseract",
			"field_type": fieldType,
		},
	}, nil
}

// parseTesseractConfig extracts the page segmentation mode and character
// whitelist from a class config string such as
// "--oem 3 --psm 8 -c tessedit_char_whitelist=0123456789".
func parseTesseractConfig(cfg string) (gosseract.PageSegMode, string) {
	psm := defaultPSM
	whitelist := defaultWhitelist

	fields := strings.Fields(cfg)
	for i, f := range fields {
		switch {
		case f == "--psm" && i+1 < len(fields):
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				psm = gosseract.PageSegMode(n)
			}
		case strings.HasPrefix(f, "tessedit_char_whitelist="):
			whitelist = strings.TrimPrefix(f, "tessedit_char_whitelist=")
		}
	}
	return psm, whitelist
}
