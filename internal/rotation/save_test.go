package rotation

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	docimage "label-editor/internal/image"
	"label-editor/internal/label"
	"label-editor/pkg/geometry"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *State, string) {
	t.Helper()
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "card.png")
	writeTestPNG(t, imagePath, 100, 200)

	state, err := NewState(testBoxes(), geometry.NewDims(100, 200))
	if err != nil {
		t.Fatal(err)
	}
	return NewCoordinator(state, imagePath, cfg), state, imagePath
}

func TestSaveLabelsOnlyNeverTouchesPixels(t *testing.T) {
	c, state, imagePath := newTestCoordinator(t, Config{})
	if err := state.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}

	before, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SaveLabelsOnly(); err != nil {
		t.Fatalf("SaveLabelsOnly failed: %v", err)
	}

	after, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("SaveLabelsOnly modified image bytes")
	}
	if !state.Dirty() {
		t.Error("SaveLabelsOnly changed the dirty flag")
	}

	boxes, dims, err := label.ReadDAT(c.LabelPath())
	if err != nil {
		t.Fatalf("reading labels back: %v", err)
	}
	if dims != geometry.NewDims(200, 100) {
		t.Errorf("saved frame dims = %+v, want rotated 200x100", dims)
	}
	if len(boxes) != 2 {
		t.Errorf("saved %d boxes, want 2", len(boxes))
	}
}

func TestSaveBothRequiresPendingRotation(t *testing.T) {
	c, state, _ := newTestCoordinator(t, Config{})

	if _, err := c.SaveBoth(SaveOverwrite); !errors.Is(err, ErrSaveConflict) {
		t.Errorf("err = %v, want ErrSaveConflict", err)
	}
	if state.Dirty() || state.Angle() != 0 {
		t.Error("failed SaveBoth changed state")
	}
}

func TestSaveBothCopyMode(t *testing.T) {
	c, state, imagePath := newTestCoordinator(t, Config{RotatedSuffix: "_rot"})
	if err := state.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}

	originalBytes, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatal(err)
	}

	target, err := c.SaveBoth(SaveCopy)
	if err != nil {
		t.Fatalf("SaveBoth failed: %v", err)
	}

	wantTarget := filepath.Join(filepath.Dir(imagePath), "card_rot.png")
	if target != wantTarget {
		t.Errorf("target = %s, want %s", target, wantTarget)
	}

	// Original untouched.
	afterBytes, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(originalBytes) != string(afterBytes) {
		t.Error("copy mode modified the original image")
	}

	// Rotated copy has swapped dimensions.
	img, err := docimage.Load(target)
	if err != nil {
		t.Fatalf("loading rotated copy: %v", err)
	}
	if docimage.Dims(img) != geometry.NewDims(200, 100) {
		t.Errorf("rotated copy dims = %+v, want 200x100", docimage.Dims(img))
	}

	// Labels written beside the copy, in the rotated frame.
	_, dims, err := label.ReadDAT(filepath.Join(filepath.Dir(imagePath), "card_rot.dat"))
	if err != nil {
		t.Fatalf("reading copied labels: %v", err)
	}
	if dims != geometry.NewDims(200, 100) {
		t.Errorf("label frame dims = %+v", dims)
	}

	// Baseline committed.
	if state.Dirty() || state.Angle() != 0 {
		t.Errorf("state not committed: angle=%d dirty=%v", state.Angle(), state.Dirty())
	}
	if state.OriginalDims() != geometry.NewDims(200, 100) {
		t.Errorf("baseline dims = %+v", state.OriginalDims())
	}

	// Nothing pending anymore.
	if _, err := c.SaveBoth(SaveCopy); !errors.Is(err, ErrSaveConflict) {
		t.Errorf("second SaveBoth err = %v, want ErrSaveConflict", err)
	}
}

func TestSaveBothOverwriteMode(t *testing.T) {
	c, state, imagePath := newTestCoordinator(t, Config{})
	if err := state.Rotate(geometry.CounterClockwise); err != nil {
		t.Fatal(err)
	}

	target, err := c.SaveBoth(SaveOverwrite)
	if err != nil {
		t.Fatalf("SaveBoth failed: %v", err)
	}
	if target != imagePath {
		t.Errorf("overwrite target = %s, want %s", target, imagePath)
	}

	img, err := docimage.Load(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if docimage.Dims(img) != geometry.NewDims(200, 100) {
		t.Errorf("overwritten dims = %+v, want 200x100", docimage.Dims(img))
	}
	if state.Dirty() {
		t.Error("state not committed after overwrite")
	}
}

func TestSaveBothPartialFailure(t *testing.T) {
	c, state, imagePath := newTestCoordinator(t, Config{})
	if err := state.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}

	// Block the label write by occupying its path with a directory.
	labelPath := filepath.Join(filepath.Dir(imagePath), "card_rotated.dat")
	if err := os.Mkdir(labelPath, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := c.SaveBoth(SaveCopy)
	var partial *PartialSaveError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialSaveError", err)
	}
	if partial.ImagePath == "" || partial.LabelPath != labelPath {
		t.Errorf("partial error paths = %+v", partial)
	}

	// State untouched so the user can retry.
	if !state.Dirty() || state.Angle() != 90 {
		t.Errorf("state changed on partial failure: angle=%d dirty=%v", state.Angle(), state.Dirty())
	}
}

func TestSaveBothPixelFailureLeavesStateUntouched(t *testing.T) {
	c, state, _ := newTestCoordinator(t, Config{})
	if err := state.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}

	// Point the coordinator at a file that cannot be decoded.
	badPath := filepath.Join(t.TempDir(), "not-an-image.png")
	if err := os.WriteFile(badPath, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.imagePath = badPath

	if _, err := c.SaveBoth(SaveOverwrite); !errors.Is(err, docimage.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if !state.Dirty() || state.Angle() != 90 {
		t.Error("state changed on pixel failure")
	}
}

func TestAutoSaveReportsPendingPixels(t *testing.T) {
	c, state, _ := newTestCoordinator(t, Config{})

	pending, err := c.AutoSave()
	if err != nil {
		t.Fatalf("AutoSave failed: %v", err)
	}
	if pending {
		t.Error("pending reported with no rotation")
	}

	if err := state.Rotate(geometry.Clockwise); err != nil {
		t.Fatal(err)
	}
	pending, err = c.AutoSave()
	if err != nil {
		t.Fatalf("AutoSave failed: %v", err)
	}
	if !pending {
		t.Error("pending not reported with rotation outstanding")
	}
	if !state.Dirty() {
		t.Error("AutoSave cleared the dirty flag")
	}
}

func TestRequiresConfirmation(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Config{ConfirmOverwrite: true})
	if !c.RequiresConfirmation(SaveOverwrite) {
		t.Error("overwrite with confirm_overwrite should require confirmation")
	}
	if c.RequiresConfirmation(SaveCopy) {
		t.Error("copy mode never requires confirmation")
	}

	c2, _, _ := newTestCoordinator(t, Config{ConfirmOverwrite: false})
	if c2.RequiresConfirmation(SaveOverwrite) {
		t.Error("confirmation required despite setting off")
	}
}

func TestParseSaveMode(t *testing.T) {
	if m, err := ParseSaveMode("overwrite"); err != nil || m != SaveOverwrite {
		t.Errorf("ParseSaveMode(overwrite) = %v, %v", m, err)
	}
	if m, err := ParseSaveMode(""); err != nil || m != SaveCopy {
		t.Errorf("ParseSaveMode(empty) = %v, %v", m, err)
	}
	if _, err := ParseSaveMode("bogus"); err == nil {
		t.Error("ParseSaveMode(bogus) succeeded")
	}
}
