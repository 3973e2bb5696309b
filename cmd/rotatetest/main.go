// Command rotatetest exercises the label rotation round trip on one image
// and prints the per-box transforms.
package main

import (
	"flag"
	"fmt"
	"os"

	"label-editor/internal/label"
	"label-editor/internal/rotation"
	"label-editor/pkg/geometry"

	docimage "label-editor/internal/image"
)

func main() {
	imagePath := flag.String("i", "", "Path to document image")
	turns := flag.Int("n", 4, "Number of clockwise quarter turns")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: rotatetest -i <image> [-n <turns>]")
		os.Exit(1)
	}

	img, err := docimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	dims := docimage.Dims(img)

	boxes, _, err := label.ReadDAT(rotation.LabelPathFor(*imagePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read labels: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s: %dx%d, %d boxes ===\n", *imagePath, dims.Width, dims.Height, len(boxes))

	state, err := rotation.NewState(boxes, dims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	for turn := 1; turn <= *turns; turn++ {
		if err := state.Rotate(geometry.Clockwise); err != nil {
			fmt.Fprintf(os.Stderr, "Rotation failed: %v\n", err)
			os.Exit(1)
		}
		d := state.DisplayedDims()
		fmt.Printf("\n--- after %d x 90 CW (angle %d, frame %dx%d) ---\n",
			turn, state.Angle(), d.Width, d.Height)
		for _, b := range state.Displayed() {
			fmt.Printf("  class %2d: (%4d,%4d) %4dx%4d\n", b.ClassID, b.X, b.Y, b.Width, b.Height)
		}
	}

	if *turns%4 == 0 {
		fmt.Println("\n=== full-circle check ===")
		mismatches := 0
		final := state.Displayed()
		for i, b := range boxes {
			if final[i].Rect() != b.Rect() {
				fmt.Printf("  MISMATCH class %d: %+v != %+v\n", b.ClassID, final[i].Rect(), b.Rect())
				mismatches++
			}
		}
		if mismatches == 0 {
			fmt.Println("  all boxes reproduced exactly")
		} else {
			os.Exit(1)
		}
	}
}
