// Package rotation keeps an image's pixels and its label geometry consistent
// across 90-degree rotations, and coordinates what gets persisted.
package rotation

import (
	"fmt"

	"label-editor/internal/label"
	"label-editor/pkg/geometry"
)

// State tracks the rotation of one open document. Angles accumulate modulo
// 360; the original label set stays in the 0-degree frame until a save of
// rotated pixels commits a new baseline. One State per open document, no
// sharing across documents.
type State struct {
	angle        geometry.Angle
	originalDims geometry.Dims

	original  []label.Box
	displayed []label.Box

	dirty  bool
	edited bool
	epoch  uint64
}

// NewState creates rotation state for a document with the given labels and
// image dimensions.
func NewState(boxes []label.Box, dims geometry.Dims) (*State, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", geometry.ErrInvalidDimensions, dims.Width, dims.Height)
	}
	return &State{
		originalDims: dims,
		original:     label.CloneBoxes(boxes),
		displayed:    label.CloneBoxes(boxes),
	}, nil
}

// Angle returns the net clockwise rotation applied since the baseline.
func (s *State) Angle() geometry.Angle { return s.angle }

// Dirty reports whether an uncommitted rotation or label edit is pending.
func (s *State) Dirty() bool { return s.dirty }

// Edited reports whether labels were edited since the last rotation, reset,
// or commit.
func (s *State) Edited() bool { return s.edited }

// Epoch identifies the current displayed frame. It advances on every
// Rotate, Reset, and CommitBaseline, so results computed asynchronously
// against an earlier frame can be recognized as stale.
func (s *State) Epoch() uint64 { return s.epoch }

// OriginalDims returns the baseline frame dimensions.
func (s *State) OriginalDims() geometry.Dims { return s.originalDims }

// DisplayedDims returns the dimensions of the current displayed frame.
func (s *State) DisplayedDims() geometry.Dims {
	return geometry.RotateDims(s.originalDims, s.angle)
}

// Original returns a copy of the baseline label set (0-degree frame).
func (s *State) Original() []label.Box { return label.CloneBoxes(s.original) }

// Displayed returns a copy of the label set in the current frame.
func (s *State) Displayed() []label.Box { return label.CloneBoxes(s.displayed) }

// SetDisplayed replaces the displayed label set with an edited version. The
// edit is taken to be expressed in the current displayed frame.
func (s *State) SetDisplayed(boxes []label.Box) {
	s.displayed = label.CloneBoxes(boxes)
	s.edited = true
	s.dirty = true
}

// Rotate turns the document a quarter turn in the given direction and
// recomputes the displayed labels.
//
// While no edits are pending, the displayed set is recomputed from the
// original baseline at the new net angle, so repeated rotations never
// accumulate clamping drift. Once edits exist they only live in the
// displayed set, so the quarter-turn delta is applied to the displayed
// boxes instead.
func (s *State) Rotate(dir geometry.Direction) error {
	newAngle := (s.angle + dir.Step()).Normalized()

	if s.edited {
		rotated, err := transformBoxes(s.displayed, s.DisplayedDims(), dir.Step().Normalized())
		if err != nil {
			return err
		}
		s.displayed = rotated
	} else {
		rotated, err := transformBoxes(s.original, s.originalDims, newAngle)
		if err != nil {
			return err
		}
		s.displayed = rotated
	}

	s.angle = newAngle
	s.dirty = s.angle != 0 || s.edited
	s.epoch++
	return nil
}

// Reset restores the baseline orientation exactly: angle zero and displayed
// labels bit-identical to the original set.
func (s *State) Reset() {
	s.angle = 0
	s.displayed = label.CloneBoxes(s.original)
	s.dirty = false
	s.edited = false
	s.epoch++
}

// CommitBaseline makes the displayed frame the new baseline. Called after
// rotated pixels were written to disk, so the file's orientation and the
// in-memory baseline agree again.
func (s *State) CommitBaseline() {
	s.original = label.CloneBoxes(s.displayed)
	s.originalDims = s.DisplayedDims()
	s.angle = 0
	s.dirty = false
	s.edited = false
	s.epoch++
}

// transformBoxes maps every box into the frame rotated clockwise by angle.
// Class, text, and other metadata pass through untouched.
func transformBoxes(boxes []label.Box, dims geometry.Dims, angle geometry.Angle) ([]label.Box, error) {
	out := label.CloneBoxes(boxes)
	for i := range out {
		rect, _, err := geometry.RotateRect(out[i].Rect(), dims, angle)
		if err != nil {
			return nil, err
		}
		out[i].SetRect(rect)
	}
	return out, nil
}
