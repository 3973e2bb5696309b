// Package main provides the entry point for the label editor's batch
// operations over a document directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"label-editor/internal/app"
	"label-editor/internal/label"
	"label-editor/internal/ocr"
	"label-editor/internal/project"
	"label-editor/internal/rotation"
	"label-editor/internal/settings"
	"label-editor/internal/validation"
	"label-editor/internal/version"
	"label-editor/pkg/geometry"
)

const appTitle = "Label Editor"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dir := flag.String("dir", ".", "Document image directory")
	classConfig := flag.String("classes", "", "Path to class configuration JSON")
	profile := flag.String("profile", "", "Settings profile to load")
	doValidate := flag.Bool("validate", false, "Validate label files and print a summary")
	rotate := flag.String("rotate", "", "Rotate an image and its labels: cw or ccw")
	imagePath := flag.String("image", "", "Image to operate on (for -rotate and -ocr)")
	saveMode := flag.String("save", "copy", "Save mode for -rotate: copy or overwrite")
	doOCR := flag.Bool("ocr", false, "Fill missing OCR text for -image")
	engineName := flag.String("engine", "", "OCR engine: tesseract (default) or ollama")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s (%s, built %s)\n", appTitle, version.Version, version.GitCommit, version.BuildTime)
		return
	}

	prefs := settings.Load("")
	if *profile != "" {
		if err := prefs.LoadProfile(*profile); err != nil {
			log.Fatalf("Failed to load profile %s: %v", *profile, err)
		}
	}

	config, err := loadClasses(*classConfig)
	if err != nil {
		log.Fatalf("Failed to load class configuration: %v", err)
	}

	switch {
	case *doValidate:
		runValidate(*dir, config)
	case *rotate != "":
		runRotate(*imagePath, *rotate, *saveMode, config, prefs.RotationConfig())
	case *doOCR:
		runOCR(*imagePath, *engineName, config, prefs.RotationConfig())
	default:
		flag.Usage()
		os.Exit(1)
	}
}

// loadClasses falls back to a minimal default when no configuration is
// given, so validation of unlabeled directories still works.
func loadClasses(path string) (*label.Config, error) {
	if path == "" {
		return &label.Config{}, nil
	}
	return label.LoadConfig(path)
}

func runValidate(dir string, config *label.Config) {
	mgr, err := project.Open(dir)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", dir, err)
	}
	defer mgr.Close()

	engine := validation.NewEngine(config)
	summary := mgr.ValidateAll(engine)

	for _, path := range mgr.Images() {
		result, _ := engine.Cached(path)
		fmt.Printf("%-40s %s\n", filepath.Base(path), result.Status())
	}
	fmt.Printf("\n%d images: %d valid, %d without labels, %d missing classes, %d regex failures, %d errors\n",
		summary.Total, summary.Valid, summary.NoDAT, summary.MissingClasses, summary.RegexErrors, summary.Errors)

	if summary.Valid+summary.NoDAT < summary.Total {
		os.Exit(1)
	}
}

func runRotate(imagePath, direction, saveMode string, config *label.Config, cfg rotation.Config) {
	if imagePath == "" {
		log.Fatal("-rotate requires -image")
	}

	var dir geometry.Direction
	switch direction {
	case "cw":
		dir = geometry.Clockwise
	case "ccw":
		dir = geometry.CounterClockwise
	default:
		log.Fatalf("Unknown rotation direction %q (want cw or ccw)", direction)
	}

	mode, err := rotation.ParseSaveMode(saveMode)
	if err != nil {
		log.Fatal(err)
	}

	session, err := app.NewSession(imagePath, config, nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	if err := session.Rotate(dir); err != nil {
		log.Fatal(err)
	}
	if err := session.Save(mode); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Rotated %s %s, saved to %s\n", filepath.Base(imagePath), dir, session.ImagePath)
}

func runOCR(imagePath, engineName string, config *label.Config, cfg rotation.Config) {
	if imagePath == "" {
		log.Fatal("-ocr requires -image")
	}

	engine, err := ocr.NewEngine(engineName)
	if err != nil {
		log.Fatal(err)
	}

	session, err := app.NewSession(imagePath, config, engine, cfg)
	if err != nil {
		engine.Close()
		log.Fatal(err)
	}
	defer session.Close()

	done := make(chan app.OCRUpdate, session.Labels.Count())
	session.On(app.EventOCRResult, func(data interface{}) {
		done <- data.(app.OCRUpdate)
	})

	pending := 0
	for _, box := range session.Labels.Boxes() {
		if box.OCRText != "" {
			continue
		}
		session.RequestOCR(context.Background(), box)
		pending++
	}
	if pending == 0 {
		fmt.Println("All boxes already have text.")
		return
	}

	failures := 0
	for i := 0; i < pending; i++ {
		update := <-done
		if update.Err != nil {
			fmt.Printf("%-16s FAILED: %v\n", config.NameFor(update.ClassID), update.Err)
			failures++
			continue
		}
		fmt.Printf("%-16s %q (%.0f%%)\n",
			config.NameFor(update.ClassID), update.Result.Text, update.Result.Confidence*100)
	}

	if err := session.SaveLabels(); err != nil {
		log.Fatalf("Failed to save labels: %v", err)
	}
	fmt.Printf("Wrote %s\n", rotation.LabelPathFor(imagePath))
	if failures > 0 {
		os.Exit(1)
	}
}
