package image

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"label-editor/pkg/geometry"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(2, 3, color.NRGBA{R: 255, A: 255})
	return img
}

func TestSaveAtomicLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")

	if err := SaveAtomic(testImage(100, 200), path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	dims := Dims(loaded)
	if dims.Width != 100 || dims.Height != 200 {
		t.Errorf("dims = %dx%d, want 100x200", dims.Width, dims.Height)
	}
	r, _, _, _ := loaded.At(2, 3).RGBA()
	if r == 0 {
		t.Error("marker pixel lost in round trip")
	}
}

func TestSaveAtomicLeavesNoTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	err := SaveAtomic(testImage(4, 4), filepath.Join(dir, "card.xyz"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("not pixels"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRegionClipsToBounds(t *testing.T) {
	img := testImage(10, 10)
	region := Region(img, geometry.RectInt{X: 6, Y: 6, Width: 10, Height: 10})
	b := region.Bounds()
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("region = %dx%d, want 4x4", b.Dx(), b.Dy())
	}
}

func TestRegionExtractsMarker(t *testing.T) {
	img := testImage(10, 10)
	region := Region(img, geometry.RectInt{X: 2, Y: 3, Width: 3, Height: 3})
	r, _, _, _ := region.At(region.Bounds().Min.X, region.Bounds().Min.Y).RGBA()
	if r == 0 {
		t.Error("region does not start at the requested corner")
	}
}
