package rotation

import (
	"fmt"
	"path/filepath"
	"strings"

	"label-editor/internal/label"

	docimage "label-editor/internal/image"
)

// SaveMode selects where SaveBoth writes the rotated image.
type SaveMode int

const (
	// SaveCopy writes the rotated image next to the original under a
	// suffixed filename, keeping the original untouched.
	SaveCopy SaveMode = iota
	// SaveOverwrite replaces the original file in place. No backup is kept.
	SaveOverwrite
)

func (m SaveMode) String() string {
	if m == SaveOverwrite {
		return "overwrite"
	}
	return "copy"
}

// ParseSaveMode converts a settings value to a SaveMode.
func ParseSaveMode(s string) (SaveMode, error) {
	switch s {
	case "copy", "":
		return SaveCopy, nil
	case "overwrite":
		return SaveOverwrite, nil
	default:
		return SaveCopy, fmt.Errorf("unknown save mode %q", s)
	}
}

const defaultRotatedSuffix = "_rotated"

// Config holds the rotation save settings consumed from the settings
// provider.
type Config struct {
	DefaultMode      SaveMode
	RotatedSuffix    string
	ConfirmOverwrite bool
}

// Coordinator decides and executes what gets persisted for one document:
// labels only (any time), or rotated pixels plus labels (only while a
// rotation is pending).
type Coordinator struct {
	state     *State
	imagePath string
	cfg       Config
}

// NewCoordinator creates a save coordinator for a document.
func NewCoordinator(state *State, imagePath string, cfg Config) *Coordinator {
	return &Coordinator{state: state, imagePath: imagePath, cfg: cfg}
}

// ImagePath returns the path of the document image.
func (c *Coordinator) ImagePath() string { return c.imagePath }

// LabelPath returns the DAT path for the document image.
func (c *Coordinator) LabelPath() string { return LabelPathFor(c.imagePath) }

// RequiresConfirmation reports whether the caller must obtain explicit user
// confirmation before running SaveBoth with the given mode. The coordinator
// never shows UI itself; it only exposes the gate.
func (c *Coordinator) RequiresConfirmation(mode SaveMode) bool {
	return mode == SaveOverwrite && c.cfg.ConfirmOverwrite
}

// SaveLabelsOnly writes the displayed labels, tagged with the current frame
// dimensions, to the document's DAT file. It never touches pixel data and
// never changes the dirty flag.
func (c *Coordinator) SaveLabelsOnly() error {
	return label.WriteDAT(c.LabelPath(), c.state.Displayed(), c.state.DisplayedDims())
}

// AutoSave persists labels only, regardless of rotation state. The returned
// flag is true when rotated pixels remain unsaved, so the caller can surface
// a non-blocking notice; auto-save never rotates or overwrites image bytes.
func (c *Coordinator) AutoSave() (pixelPending bool, err error) {
	if err := c.SaveLabelsOnly(); err != nil {
		return c.state.Dirty(), err
	}
	return c.state.Dirty(), nil
}

// SaveBoth rotates the image pixels by the net pending angle and writes them
// together with the displayed labels, then commits the displayed frame as
// the new baseline. Returns the path the image was written to.
//
// The pixel write happens first, through a temp file and atomic rename, so a
// failure there changes nothing on disk or in memory. If the label write
// fails after the image was already written, a PartialSaveError names both
// halves and state is left unchanged for a retry.
func (c *Coordinator) SaveBoth(mode SaveMode) (string, error) {
	if !c.state.Dirty() {
		return "", fmt.Errorf("%w: %s", ErrSaveConflict, c.imagePath)
	}

	img, err := docimage.Load(c.imagePath)
	if err != nil {
		return "", err
	}

	rotated, err := RotatePixels(img, c.state.Angle())
	if err != nil {
		return "", &RotationError{Path: c.imagePath, Err: err}
	}

	target := c.imagePath
	if mode == SaveCopy {
		target = suffixedPath(c.imagePath, c.rotatedSuffix())
	}

	if err := docimage.SaveAtomic(rotated, target); err != nil {
		return "", &RotationError{Path: target, Err: err}
	}

	labelPath := LabelPathFor(target)
	if err := label.WriteDAT(labelPath, c.state.Displayed(), c.state.DisplayedDims()); err != nil {
		return target, &PartialSaveError{ImagePath: target, LabelPath: labelPath, Err: err}
	}

	c.state.CommitBaseline()
	if mode == SaveCopy {
		c.imagePath = target
	}
	return target, nil
}

func (c *Coordinator) rotatedSuffix() string {
	if c.cfg.RotatedSuffix != "" {
		return c.cfg.RotatedSuffix
	}
	return defaultRotatedSuffix
}

// LabelPathFor maps an image path to its label file path.
func LabelPathFor(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".dat"
}

// suffixedPath inserts a suffix before the file extension.
func suffixedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
