package label

import (
	"encoding/json"
	"fmt"
	"os"
)

// Field types drive OCR preprocessing and text postprocessing.
const (
	FieldText         = "text"
	FieldDate         = "date"
	FieldMRZ          = "mrz"
	FieldSingleChar   = "single_char"
	FieldAlphanumeric = "alphanumeric"
)

// Class describes one label class of a document profile (e.g. the "id_number"
// field of an identity card).
type Class struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"key,omitempty"`
	Required bool   `json:"required"`

	// FieldType selects OCR pre/postprocessing. Empty means FieldText.
	FieldType string `json:"field_type,omitempty"`

	// RegexPattern validates OCR text for the class. Empty disables validation.
	RegexPattern string `json:"regex_pattern,omitempty"`

	// TesseractConfig overrides the character whitelist for the class.
	TesseractConfig string `json:"tesseract_config,omitempty"`
}

// Config holds the class set of a document profile.
type Config struct {
	Classes []Class `json:"classes"`
}

// LoadConfig reads a class configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse class config: %w", err)
	}
	return &cfg, nil
}

// ByID returns the class with the given id, or nil.
func (c *Config) ByID(id int) *Class {
	for i := range c.Classes {
		if c.Classes[i].ID == id {
			return &c.Classes[i]
		}
	}
	return nil
}

// NameFor returns the class name for an id, falling back to "class_N".
func (c *Config) NameFor(id int) string {
	if cls := c.ByID(id); cls != nil {
		return cls.Name
	}
	return fmt.Sprintf("class_%d", id)
}

// RequiredIDs returns the ids of all classes marked required.
func (c *Config) RequiredIDs() []int {
	var ids []int
	for _, cls := range c.Classes {
		if cls.Required {
			ids = append(ids, cls.ID)
		}
	}
	return ids
}

// FieldTypeFor returns the field type for a class id, defaulting to FieldText.
func (c *Config) FieldTypeFor(id int) string {
	if cls := c.ByID(id); cls != nil && cls.FieldType != "" {
		return cls.FieldType
	}
	return FieldText
}
