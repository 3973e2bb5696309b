// Package project manages a directory of document images: scanning,
// navigation, validation bookkeeping, and background label saves.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// File represents a label-editor project file (.lblproj). It pins a
// document directory together with the per-project preferences so a
// labeling session can be resumed where it left off.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Directory holds the document images, relative to the project file
	// when possible.
	Directory string `json:"directory,omitempty"`

	// LastImage is the image that was open when the project was saved.
	LastImage string `json:"last_image,omitempty"`

	ClassConfigPath string `json:"class_config,omitempty"`

	Settings Settings `json:"settings,omitempty"`
}

// Settings holds per-project preferences.
type Settings struct {
	OCREngine     string `json:"ocr_engine,omitempty"`
	SaveMode      string `json:"save_mode,omitempty"`
	RotatedSuffix string `json:"rotated_suffix,omitempty"`
	AutoSave      bool   `json:"auto_save"`
}

// New creates a project file with default settings.
func New(name, directory string) *File {
	now := time.Now()
	return &File{
		Version:   1,
		Name:      name,
		Created:   now,
		Modified:  now,
		Directory: directory,
		Settings: Settings{
			OCREngine: "tesseract",
			SaveMode:  "copy",
			AutoSave:  true,
		},
	}
}

// LoadFile loads a project from a .lblproj file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save writes the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetDirectory records the document directory, relative to the project
// file when possible.
func (p *File) SetDirectory(projectPath, dir string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), dir)
	if err != nil {
		p.Directory = dir
	} else {
		p.Directory = rel
	}
	p.Modified = time.Now()
}

// DirectoryPath returns the absolute path to the document directory.
func (p *File) DirectoryPath(projectPath string) string {
	if p.Directory == "" {
		return ""
	}
	if filepath.IsAbs(p.Directory) {
		return p.Directory
	}
	return filepath.Join(filepath.Dir(projectPath), p.Directory)
}
