package app

import (
	"context"
	"errors"
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"label-editor/internal/label"
	"label-editor/internal/ocr"
	"label-editor/internal/rotation"
	"label-editor/pkg/geometry"
)

// fakeEngine waits for release before answering, so tests can rotate the
// document while a recognition is in flight.
type fakeEngine struct {
	release chan struct{}
	text    string
}

func newFakeEngine(text string) *fakeEngine {
	return &fakeEngine{release: make(chan struct{}), text: text}
}

func (f *fakeEngine) Recognize(ctx context.Context, region goimage.Image, class label.Class) (ocr.Result, error) {
	<-f.release
	return ocr.Result{Text: f.text, Confidence: 0.9}, nil
}

func (f *fakeEngine) Close() error { return nil }

// failingEngine always errors, standing in for an unreachable OCR backend.
type failingEngine struct{}

func (failingEngine) Recognize(ctx context.Context, region goimage.Image, class label.Class) (ocr.Result, error) {
	return ocr.Result{}, errors.New("backend unavailable")
}

func (failingEngine) Close() error { return nil }

func testConfig() *label.Config {
	return &label.Config{Classes: []label.Class{
		{ID: 0, Name: "id_number", Required: true},
		{ID: 1, Name: "full_name"},
	}}
}

func writeSessionImage(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "card.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, goimage.NewNRGBA(goimage.Rect(0, 0, 100, 200))); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(t *testing.T, engine ocr.Engine) *Session {
	t.Helper()
	dir := t.TempDir()
	imagePath := writeSessionImage(t, dir)
	boxes := []label.Box{
		{X: 10, Y: 10, Width: 20, Height: 40, ClassID: 0},
		{X: 5, Y: 100, Width: 50, Height: 30, ClassID: 1},
	}
	dims := geometry.Dims{Width: 100, Height: 200}
	if err := label.WriteDAT(rotation.LabelPathFor(imagePath), boxes, dims); err != nil {
		t.Fatal(err)
	}

	s, err := NewSession(imagePath, testConfig(), engine, rotation.Config{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLoadsLabels(t *testing.T) {
	s := newTestSession(t, nil)
	if s.Labels.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Labels.Count())
	}
	boxes := s.Labels.Boxes()
	if boxes[0].Name != "id_number" {
		t.Errorf("class name not resolved: %q", boxes[0].Name)
	}
	if s.State.Dirty() {
		t.Error("fresh session is dirty")
	}
}

func TestSessionMissingLabelFile(t *testing.T) {
	dir := t.TempDir()
	imagePath := writeSessionImage(t, dir)
	s, err := NewSession(imagePath, testConfig(), nil, rotation.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Labels.Count() != 0 {
		t.Errorf("expected empty session, got %d boxes", s.Labels.Count())
	}
}

func TestSessionRotateKeepsPixelsAndBoxesInStep(t *testing.T) {
	s := newTestSession(t, nil)

	var rotatedTo geometry.Angle
	s.On(EventRotated, func(data interface{}) {
		rotatedTo = data.(geometry.Angle)
	})

	if err := s.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}
	if rotatedTo != 90 {
		t.Errorf("EventRotated angle = %d, want 90", rotatedTo)
	}

	b := s.Displayed().Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("displayed pixels = %dx%d, want 200x100", b.Dx(), b.Dy())
	}
	boxes := s.Labels.Boxes()
	want := geometry.RectInt{X: 150, Y: 10, Width: 40, Height: 20}
	if boxes[0].Rect() != want {
		t.Errorf("box 0 = %+v, want %+v", boxes[0].Rect(), want)
	}
	if !s.State.Dirty() {
		t.Error("rotated session is not dirty")
	}
}

func TestSessionResetRestoresBaseline(t *testing.T) {
	s := newTestSession(t, nil)
	original := s.Labels.Boxes()

	s.Rotate(geometry.Clockwise)
	s.Rotate(geometry.Clockwise)
	s.Reset()

	b := s.Displayed().Bounds()
	if b.Dx() != 100 || b.Dy() != 200 {
		t.Errorf("displayed pixels = %dx%d, want 100x200", b.Dx(), b.Dy())
	}
	boxes := s.Labels.Boxes()
	for i := range boxes {
		if boxes[i].Rect() != original[i].Rect() {
			t.Errorf("box %d = %+v, want %+v", i, boxes[i].Rect(), original[i].Rect())
		}
	}
	if s.State.Dirty() {
		t.Error("reset session is dirty")
	}
}

func TestSessionEditMarksStateEdited(t *testing.T) {
	s := newTestSession(t, nil)
	s.Labels.Select(s.Labels.BoxAt(15, 15))
	s.Labels.MoveSelected(3, 0)
	if !s.State.Edited() {
		t.Error("box edit did not mark rotation state edited")
	}
	if !s.State.Dirty() {
		t.Error("box edit did not mark rotation state dirty")
	}
}

func TestSessionSaveCopyFollowsNewPath(t *testing.T) {
	s := newTestSession(t, nil)
	s.Rotate(geometry.Clockwise)

	var savedPath string
	s.On(EventSaved, func(data interface{}) { savedPath = data.(string) })

	if err := s.Save(rotation.SaveCopy); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(savedPath) != "card_rotated.png" {
		t.Errorf("saved path = %s", savedPath)
	}
	if s.ImagePath != savedPath {
		t.Error("session did not follow the copy")
	}
	if s.State.Dirty() {
		t.Error("state still dirty after save")
	}
}

func TestStaleOCRResultDropped(t *testing.T) {
	engine := newFakeEngine("079123456789")
	s := newTestSession(t, engine)

	done := make(chan OCRUpdate, 1)
	s.On(EventOCRResult, func(data interface{}) { done <- data.(OCRUpdate) })

	box := s.Labels.Boxes()[0]
	s.RequestOCR(context.Background(), box)

	// Rotating advances the epoch while recognition is still in flight.
	s.Rotate(geometry.Clockwise)
	close(engine.release)

	var update OCRUpdate
	select {
	case update = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no completion emitted for stale result")
	}
	if !update.Stale {
		t.Errorf("update = %+v, want Stale", update)
	}

	// The in-flight result must not land on the rotated document.
	if got := s.Labels.Boxes()[0].OCRText; got != "" {
		t.Errorf("stale OCR result was applied: %q", got)
	}
}

func TestOCRFailureEmitsCompletion(t *testing.T) {
	s := newTestSession(t, failingEngine{})

	done := make(chan OCRUpdate, 1)
	s.On(EventOCRResult, func(data interface{}) { done <- data.(OCRUpdate) })

	s.RequestOCR(context.Background(), s.Labels.Boxes()[0])

	select {
	case update := <-done:
		if update.Err == nil {
			t.Errorf("update = %+v, want Err set", update)
		}
		if update.ClassID != 0 {
			t.Errorf("ClassID = %d, want 0", update.ClassID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no completion emitted for failed recognition")
	}
	if got := s.Labels.Boxes()[0].OCRText; got != "" {
		t.Errorf("failed recognition wrote text: %q", got)
	}
}

func TestFreshOCRResultApplied(t *testing.T) {
	engine := newFakeEngine("079123456789")
	s := newTestSession(t, engine)

	var update OCRUpdate
	done := make(chan struct{})
	s.On(EventOCRResult, func(data interface{}) {
		update = data.(OCRUpdate)
		close(done)
	})

	s.RequestOCR(context.Background(), s.Labels.Boxes()[0])
	close(engine.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OCR result")
	}
	if update.Result.Text != "079123456789" {
		t.Errorf("update text = %q", update.Result.Text)
	}
	if got := s.Labels.Boxes()[0].OCRText; got != "079123456789" {
		t.Errorf("box text = %q", got)
	}
	if !s.State.Edited() {
		t.Error("OCR text did not mark the state edited")
	}
}
