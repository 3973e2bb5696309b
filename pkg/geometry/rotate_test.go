package geometry

import (
	"errors"
	"testing"
)

func TestRotateRectQuarterTurn(t *testing.T) {
	// Frame 100x200, rect (10,10)-(30,50). One clockwise turn maps corners
	// with (x,y) -> (200-y, x), giving (150,10)-(190,30) in the 200x100 frame.
	dims := NewDims(100, 200)
	rect := NewRectInt(10, 10, 20, 40)

	got, gotDims, err := RotateRect(rect, dims, 90)
	if err != nil {
		t.Fatalf("RotateRect failed: %v", err)
	}

	want := NewRectInt(150, 10, 40, 20)
	if got != want {
		t.Errorf("rotated rect = %+v, want %+v", got, want)
	}
	if gotDims != NewDims(200, 100) {
		t.Errorf("rotated dims = %+v, want 200x100", gotDims)
	}
}

func TestRotateRectFullCircle(t *testing.T) {
	// Four successive 90-degree rotations must reproduce the input exactly.
	rects := []RectInt{
		NewRectInt(10, 10, 20, 40),
		NewRectInt(0, 0, 100, 200),
		NewRectInt(99, 199, 1, 1),
		NewRectInt(0, 150, 100, 50),
	}

	for _, rect := range rects {
		r := rect
		dims := NewDims(100, 200)
		for i := 0; i < 4; i++ {
			var err error
			r, dims, err = RotateRect(r, dims, 90)
			if err != nil {
				t.Fatalf("rotation %d of %+v failed: %v", i+1, rect, err)
			}
		}
		if r != rect {
			t.Errorf("four rotations of %+v returned %+v", rect, r)
		}
		if dims != NewDims(100, 200) {
			t.Errorf("four rotations of dims returned %+v", dims)
		}
	}
}

func TestRotateRectRoundTrip(t *testing.T) {
	// 90 followed by 270 in the rotated frame is the identity.
	dims := NewDims(640, 480)
	rect := NewRectInt(25, 30, 120, 60)

	rotated, rotatedDims, err := RotateRect(rect, dims, 90)
	if err != nil {
		t.Fatalf("forward rotation failed: %v", err)
	}

	back, backDims, err := RotateRect(rotated, rotatedDims, 270)
	if err != nil {
		t.Fatalf("reverse rotation failed: %v", err)
	}

	if back != rect {
		t.Errorf("round trip returned %+v, want %+v", back, rect)
	}
	if backDims != dims {
		t.Errorf("round trip dims = %+v, want %+v", backDims, dims)
	}
}

func TestRotateRect180(t *testing.T) {
	dims := NewDims(100, 200)
	rect := NewRectInt(10, 20, 30, 40)

	got, gotDims, err := RotateRect(rect, dims, 180)
	if err != nil {
		t.Fatalf("RotateRect failed: %v", err)
	}

	// (10,20) -> (90,180), (40,60) -> (60,140); bbox (60,140)-(90,180).
	want := NewRectInt(60, 140, 30, 40)
	if got != want {
		t.Errorf("rotated rect = %+v, want %+v", got, want)
	}
	if gotDims != dims {
		t.Errorf("180 rotation changed dims to %+v", gotDims)
	}
}

func TestRotateRectZeroIsIdentity(t *testing.T) {
	dims := NewDims(100, 200)
	rect := NewRectInt(10, 20, 30, 40)

	got, gotDims, err := RotateRect(rect, dims, 0)
	if err != nil {
		t.Fatalf("RotateRect failed: %v", err)
	}
	if got != rect || gotDims != dims {
		t.Errorf("zero rotation changed rect to %+v dims %+v", got, gotDims)
	}
}

func TestRotateRectClampsOutOfBounds(t *testing.T) {
	dims := NewDims(100, 100)
	rect := NewRectInt(80, 80, 50, 50)

	got, _, err := RotateRect(rect, dims, 180)
	if err != nil {
		t.Fatalf("RotateRect failed: %v", err)
	}

	// (80,80)-(130,130) maps to (-30,-30)-(20,20), clamped to (0,0)-(20,20).
	want := NewRectInt(0, 0, 20, 20)
	if got != want {
		t.Errorf("clamped rect = %+v, want %+v", got, want)
	}
}

func TestRotateRectErrors(t *testing.T) {
	dims := NewDims(100, 200)
	rect := NewRectInt(10, 10, 20, 40)

	if _, _, err := RotateRect(rect, dims, 45); !errors.Is(err, ErrInvalidAngle) {
		t.Errorf("angle 45: err = %v, want ErrInvalidAngle", err)
	}
	if _, _, err := RotateRect(rect, NewDims(0, 200), 90); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width: err = %v, want ErrInvalidDimensions", err)
	}
	if _, _, err := RotateRect(rect, NewDims(100, -1), 90); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("negative height: err = %v, want ErrInvalidDimensions", err)
	}
}

func TestAngleNormalized(t *testing.T) {
	cases := map[Angle]Angle{0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -180: 180}
	for in, want := range cases {
		if got := in.Normalized(); got != want {
			t.Errorf("Normalized(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDirectionStep(t *testing.T) {
	if Clockwise.Step() != 90 {
		t.Errorf("clockwise step = %d", Clockwise.Step())
	}
	if CounterClockwise.Step() != -90 {
		t.Errorf("counter-clockwise step = %d", CounterClockwise.Step())
	}
}
