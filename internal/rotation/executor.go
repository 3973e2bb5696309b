package rotation

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"label-editor/pkg/geometry"
)

// RotatePixels returns img rotated clockwise by angle. The orientation
// matches the label transforms in pkg/geometry: a rectangle mapped by
// RotateRect bounds the same pixels in the rotated image.
//
// imaging's Rotate functions turn counter-clockwise, hence the swap.
func RotatePixels(img image.Image, angle geometry.Angle) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if !angle.IsRightAngle() {
		return nil, fmt.Errorf("%w: %d", geometry.ErrInvalidAngle, angle)
	}

	switch angle.Normalized() {
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return imaging.Clone(img), nil
	}
}
