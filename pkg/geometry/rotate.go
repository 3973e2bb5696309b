package geometry

import (
	"errors"
	"fmt"
)

// Rotation errors. These indicate contract violations by the caller rather
// than runtime conditions.
var (
	ErrInvalidAngle      = errors.New("angle must be a multiple of 90 degrees")
	ErrInvalidDimensions = errors.New("frame dimensions must be positive")
)

// Angle is a clockwise rotation in degrees. Only right angles (multiples of
// 90) are meaningful to the frame transforms in this package.
type Angle int

// Normalized returns the angle reduced to the range [0, 360).
func (a Angle) Normalized() Angle {
	n := a % 360
	if n < 0 {
		n += 360
	}
	return n
}

// IsRightAngle returns true if the angle is a multiple of 90 degrees.
func (a Angle) IsRightAngle() bool {
	return a%90 == 0
}

// Direction is a rotation direction as seen by the viewer of the image.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// Step returns the 90-degree angle delta for the direction.
func (d Direction) Step() Angle {
	if d == CounterClockwise {
		return -90
	}
	return 90
}

// RotatePoint maps a point from a frame with the given dims into the frame
// produced by rotating the image clockwise by angle.
//
//	 90: (x, y) -> (H - y, x)
//	180: (x, y) -> (W - x, H - y)
//	270: (x, y) -> (y, W - x)
func RotatePoint(p PointInt, dims Dims, angle Angle) PointInt {
	switch angle.Normalized() {
	case 90:
		return PointInt{X: dims.Height - p.Y, Y: p.X}
	case 180:
		return PointInt{X: dims.Width - p.X, Y: dims.Height - p.Y}
	case 270:
		return PointInt{X: p.Y, Y: dims.Width - p.X}
	default:
		return p
	}
}

// RotateDims returns the frame dims after a clockwise rotation by angle.
func RotateDims(dims Dims, angle Angle) Dims {
	switch angle.Normalized() {
	case 90, 270:
		return dims.Swapped()
	default:
		return dims
	}
}

// RotateRect maps a rectangle from a frame with the given dims into the frame
// produced by rotating the image clockwise by angle, and returns the new
// rectangle together with the new frame dims.
//
// The rectangle is transformed corner-wise: each of the four corners is
// mapped individually and the result is the axis-aligned bounding box of the
// mapped corners, clamped to the new frame. A bounding box is not
// rotation-covariant under a center+size formula, so corner mapping is the
// only exact approach. Four successive 90-degree applications reproduce the
// input rectangle; clamping is a no-op for rectangles already in bounds.
func RotateRect(r RectInt, dims Dims, angle Angle) (RectInt, Dims, error) {
	if !angle.IsRightAngle() {
		return RectInt{}, Dims{}, fmt.Errorf("%w: %d", ErrInvalidAngle, angle)
	}
	if !dims.Valid() {
		return RectInt{}, Dims{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, dims.Width, dims.Height)
	}

	a := angle.Normalized()
	newDims := RotateDims(dims, a)
	if a == 0 {
		return clampRect(r, newDims), newDims, nil
	}

	corners := r.Corners()
	mapped := make([]PointInt, len(corners))
	for i, c := range corners {
		mapped[i] = RotatePoint(c, dims, a)
	}

	return clampRect(BoundingBoxInt(mapped), newDims), newDims, nil
}

// clampRect limits the rectangle to [0, dims.Width] x [0, dims.Height],
// preserving the opposite edge.
func clampRect(r RectInt, dims Dims) RectInt {
	x1, y1 := r.X, r.Y
	x2, y2 := r.X+r.Width, r.Y+r.Height

	x1 = clamp(x1, 0, dims.Width)
	y1 = clamp(y1, 0, dims.Height)
	x2 = clamp(x2, 0, dims.Width)
	y2 = clamp(y2, 0, dims.Height)

	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
