package rotation

import (
	"errors"
	"fmt"
)

// ErrSaveConflict reports a SaveBoth call with no rotation pending.
var ErrSaveConflict = errors.New("no rotation pending")

// RotationError reports a pixel-processing or pixel-write failure for a
// specific file. In-memory state is left untouched when it occurs.
type RotationError struct {
	Path string
	Err  error
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotation failed for %s: %v", e.Path, e.Err)
}

func (e *RotationError) Unwrap() error { return e.Err }

// PartialSaveError reports a SaveBoth where the rotated image was written
// but the label write failed. The on-disk image and labels are now
// inconsistent; rotation state is left unchanged so the save can be retried.
type PartialSaveError struct {
	ImagePath string
	LabelPath string
	Err       error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("partial save: image written to %s but labels failed for %s: %v",
		e.ImagePath, e.LabelPath, e.Err)
}

func (e *PartialSaveError) Unwrap() error { return e.Err }
