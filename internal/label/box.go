// Package label provides bounding-box label types, class configuration, and
// the DAT label file format.
package label

import (
	"fmt"

	"label-editor/pkg/geometry"
)

// Box is a labeled rectangle over a document image. Coordinates are pixels
// in the frame the box was created in.
type Box struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	ClassID int    `json:"class_id"`
	OCRText string `json:"ocr_text,omitempty"`

	// Display name resolved from class config, not persisted.
	Name     string `json:"-"`
	Selected bool   `json:"-"`
}

// NewBox creates a box with the name defaulted from the class id.
func NewBox(x, y, width, height, classID int, ocrText string) Box {
	return Box{
		X: x, Y: y, Width: width, Height: height,
		ClassID: classID,
		OCRText: ocrText,
		Name:    fmt.Sprintf("class_%d", classID),
	}
}

// Rect returns the box geometry.
func (b *Box) Rect() geometry.RectInt {
	return geometry.RectInt{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// SetRect replaces the box geometry.
func (b *Box) SetRect(r geometry.RectInt) {
	b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.Width, r.Height
}

// ContainsPoint returns true if (x, y) lies inside the box.
func (b *Box) ContainsPoint(x, y int) bool {
	return b.Rect().Contains(x, y)
}

// Handle identifies a resize handle on a box edge or corner.
type Handle string

const (
	HandleNone Handle = ""
	HandleNW   Handle = "nw"
	HandleNE   Handle = "ne"
	HandleSW   Handle = "sw"
	HandleSE   Handle = "se"
	HandleN    Handle = "n"
	HandleS    Handle = "s"
	HandleW    Handle = "w"
	HandleE    Handle = "e"
)

// ResizeHandle returns the handle under (x, y), or HandleNone. Corners are
// checked before edges so a corner hit wins.
func (b *Box) ResizeHandle(x, y, handleSize int) Handle {
	near := func(a, b int) bool {
		d := a - b
		if d < 0 {
			d = -d
		}
		return d <= handleSize
	}

	x2 := b.X + b.Width
	y2 := b.Y + b.Height

	switch {
	case near(x, b.X) && near(y, b.Y):
		return HandleNW
	case near(x, x2) && near(y, b.Y):
		return HandleNE
	case near(x, b.X) && near(y, y2):
		return HandleSW
	case near(x, x2) && near(y, y2):
		return HandleSE
	case near(x, b.X) && y >= b.Y && y <= y2:
		return HandleW
	case near(x, x2) && y >= b.Y && y <= y2:
		return HandleE
	case near(y, b.Y) && x >= b.X && x <= x2:
		return HandleN
	case near(y, y2) && x >= b.X && x <= x2:
		return HandleS
	}
	return HandleNone
}

// CloneBoxes returns a deep copy of a box slice.
func CloneBoxes(boxes []Box) []Box {
	if boxes == nil {
		return nil
	}
	out := make([]Box, len(boxes))
	copy(out, boxes)
	return out
}
