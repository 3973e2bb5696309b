package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"label-editor/internal/label"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2-vision"
	ollamaTimeout      = 120 * time.Second
)

// OllamaEngine recognizes text with a local vision model. Slower than
// tesseract but handles degraded scans and Vietnamese diacritics better.
type OllamaEngine struct {
	client *api.Client
	model  string
}

// NewOllamaEngine connects to an Ollama server. Empty baseURL and model
// select the local defaults.
func NewOllamaEngine(baseURL, model string) (*OllamaEngine, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama url: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaEngine{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Close implements Engine. The API client holds no persistent resources.
func (e *OllamaEngine) Close() error { return nil }

// Recognize sends the region to the vision model with a field-specific
// prompt and returns the single-line answer.
func (e *OllamaEngine) Recognize(ctx context.Context, region image.Image, class label.Class) (Result, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ollamaTimeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, region); err != nil {
		return Result{}, fmt.Errorf("encode region: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: e.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: promptFor(class.FieldType),
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &stream,
	}

	var content string
	err := e.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("ollama chat: %w", err)
	}
	if content == "" {
		return Result{}, fmt.Errorf("ollama returned empty response for %s", class.Name)
	}

	text := Postprocess(firstLine(content), class.FieldType, class.RegexPattern)
	return Result{
		Text: text,
		// The chat API exposes no token confidences; report a fixed
		// mid-high value so downstream thresholds still work.
		Confidence: 0.8,
		Metadata: map[string]string{
			"engine": "ollama",
			"model":  e.model,
		},
	}, nil
}

func promptFor(fieldType string) string {
	switch fieldType {
	case label.FieldMRZ:
		return "Transcribe the machine-readable zone in this image exactly. Output only the characters A-Z, 0-9 and <, no explanation."
	case label.FieldDate:
		return "Read the date printed in this image. Output only the date text, no explanation."
	case label.FieldSingleChar:
		return "Read the single character in this image. Output only that character."
	default:
		return "Transcribe the text in this image exactly as printed. Output only the text, no explanation."
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
