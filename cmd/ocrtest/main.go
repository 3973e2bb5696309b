// Command ocrtest runs an OCR engine over the labeled boxes of one image
// and prints what it reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	docimage "label-editor/internal/image"
	"label-editor/internal/label"
	"label-editor/internal/ocr"
	"label-editor/internal/rotation"
)

func main() {
	imagePath := flag.String("i", "", "Path to document image")
	classConfig := flag.String("c", "", "Path to class configuration JSON")
	engineName := flag.String("engine", "", "OCR engine: tesseract (default) or ollama")
	timeout := flag.Duration("timeout", 2*time.Minute, "Per-box recognition timeout")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: ocrtest -i <image> [-c <classes.json>] [-engine tesseract|ollama]")
		os.Exit(1)
	}

	config := &label.Config{}
	if *classConfig != "" {
		loaded, err := label.LoadConfig(*classConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load classes: %v\n", err)
			os.Exit(1)
		}
		config = loaded
	}

	img, err := docimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	boxes, _, err := label.ReadDAT(rotation.LabelPathFor(*imagePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read labels: %v\n", err)
		os.Exit(1)
	}

	engine, err := ocr.NewEngine(*engineName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("=== %s: %d boxes ===\n", *imagePath, len(boxes))
	failures := 0
	for _, b := range boxes {
		class := label.Class{ID: b.ClassID, Name: config.NameFor(b.ClassID)}
		if cls := config.ByID(b.ClassID); cls != nil {
			class = *cls
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		result, err := engine.Recognize(ctx, docimage.Region(img, b.Rect()), class)
		cancel()

		if err != nil {
			fmt.Printf("%-16s FAILED: %v\n", class.Name, err)
			failures++
			continue
		}
		mark := " "
		if b.OCRText != "" && b.OCRText != result.Text {
			mark = "!"
		}
		fmt.Printf("%-16s %q (%.0f%%)%s\n", class.Name, result.Text, result.Confidence*100, mark)
	}

	if failures > 0 {
		os.Exit(1)
	}
}
