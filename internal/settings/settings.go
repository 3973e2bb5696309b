// Package settings provides JSON-based application settings with profile
// support. A base settings file holds defaults all profiles inherit from;
// a profile stores only its differences from the base.
package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"label-editor/internal/rotation"
)

const (
	baseFile    = "base.json"
	profilesDir = "profiles"
)

// Manager holds the merged settings of the active profile.
type Manager struct {
	mu  sync.RWMutex
	dir string

	base   map[string]interface{}
	values map[string]interface{}

	activeProfile string
}

// Load reads settings from dir. An empty dir selects
// ~/.config/label-editor. Missing base settings are created with defaults.
func Load(dir string) *Manager {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			configDir = filepath.Join(os.Getenv("HOME"), ".config")
		}
		dir = filepath.Join(configDir, "label-editor")
	}

	m := &Manager{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, baseFile))
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, &m.base); jerr != nil || m.base == nil {
			// Defaults are used in memory only; the unreadable file stays
			// on disk instead of being clobbered.
			log.Printf("Cannot parse %s, using defaults: %v", baseFile, jerr)
			m.base = defaultBase()
		}
	case os.IsNotExist(err):
		m.base = defaultBase()
		_ = m.writeBase()
	default:
		log.Printf("Cannot read %s, using defaults: %v", baseFile, err)
		m.base = defaultBase()
	}
	m.values = deepCopy(m.base)
	return m
}

func defaultBase() map[string]interface{} {
	return map[string]interface{}{
		"app": map[string]interface{}{
			"name":               "Label Editor",
			"auto_save_interval": float64(60),
			"default_engine":     "tesseract",
		},
		"file_types": map[string]interface{}{
			"image_extensions": []interface{}{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"},
			"data_extension":   ".dat",
		},
		"rotation": map[string]interface{}{
			"default_save_format": "copy",
			"rotated_suffix":      "_rotated",
			"confirm_overwrite":   true,
		},
	}
}

func (m *Manager) writeBase() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.base, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, baseFile), data, 0o644)
}

// ActiveProfile returns the loaded profile name, or "" for base settings.
func (m *Manager) ActiveProfile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeProfile
}

// LoadProfile merges a profile over the base settings and makes it active.
func (m *Manager) LoadProfile(name string) error {
	data, err := os.ReadFile(m.profilePath(name))
	if err != nil {
		return fmt.Errorf("profile %q not found: %w", name, err)
	}

	var profile map[string]interface{}
	if err := json.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("profile %q is not valid JSON: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = deepMerge(deepCopy(m.base), profile)
	m.activeProfile = name
	return nil
}

// SaveProfile writes the differences between the current settings and the
// base to a profile file.
func (m *Manager) SaveProfile(name string) error {
	m.mu.RLock()
	delta := diff(m.base, m.values)
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Join(m.dir, profilesDir), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(delta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.profilePath(name), data, 0o644)
}

// ListProfiles returns the available profile names, sorted.
func (m *Manager) ListProfiles() []string {
	entries, err := os.ReadDir(filepath.Join(m.dir, profilesDir))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// DeleteProfile removes a profile. The active profile falls back to base.
func (m *Manager) DeleteProfile(name string) error {
	if err := os.Remove(m.profilePath(name)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeProfile == name {
		m.activeProfile = ""
		m.values = deepCopy(m.base)
	}
	return nil
}

func (m *Manager) profilePath(name string) string {
	return filepath.Join(m.dir, profilesDir, name+".json")
}

// Get returns a setting by dot-separated path, e.g. "rotation.rotated_suffix".
func (m *Manager) Get(path string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cur interface{} = m.values
	for _, key := range strings.Split(path, ".") {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = node[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns a string setting, or fallback.
func (m *Manager) String(path, fallback string) string {
	if v, ok := m.Get(path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Bool returns a boolean setting, or fallback.
func (m *Manager) Bool(path string, fallback bool) bool {
	if v, ok := m.Get(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// Int returns an integer setting, or fallback. JSON numbers arrive as
// float64 and are truncated.
func (m *Manager) Int(path string, fallback int) int {
	if v, ok := m.Get(path); ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

// Set stores a setting by dot-separated path. With a profile active the
// change is persisted to that profile; otherwise it goes to the base file.
func (m *Manager) Set(path string, value interface{}) error {
	m.mu.Lock()
	keys := strings.Split(path, ".")
	node := m.values
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value
	active := m.activeProfile
	if active == "" {
		m.base = deepCopy(m.values)
	}
	m.mu.Unlock()

	if active != "" {
		return m.SaveProfile(active)
	}
	return m.writeBase()
}

// RotationConfig assembles the rotation save settings.
func (m *Manager) RotationConfig() rotation.Config {
	mode, err := rotation.ParseSaveMode(m.String("rotation.default_save_format", "copy"))
	if err != nil {
		mode = rotation.SaveCopy
	}
	return rotation.Config{
		DefaultMode:      mode,
		RotatedSuffix:    m.String("rotation.rotated_suffix", "_rotated"),
		ConfirmOverwrite: m.Bool("rotation.confirm_overwrite", true),
	}
}

// deepMerge merges override into base recursively; override wins.
func deepMerge(base, override map[string]interface{}) map[string]interface{} {
	for key, value := range override {
		if ov, ok := value.(map[string]interface{}); ok {
			if bv, ok := base[key].(map[string]interface{}); ok {
				base[key] = deepMerge(bv, ov)
				continue
			}
		}
		base[key] = value
	}
	return base
}

// diff returns the entries of current that differ from base.
func diff(base, current map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range current {
		bv, exists := base[key]
		if !exists {
			out[key] = value
			continue
		}
		if cm, ok := value.(map[string]interface{}); ok {
			if bm, ok := bv.(map[string]interface{}); ok {
				if nested := diff(bm, cm); len(nested) > 0 {
					out[key] = nested
				}
				continue
			}
		}
		if !equalJSON(bv, value) {
			out[key] = value
		}
	}
	return out
}

func equalJSON(a, b interface{}) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

func deepCopy(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for key, value := range src {
		if vm, ok := value.(map[string]interface{}); ok {
			out[key] = deepCopy(vm)
		} else {
			out[key] = value
		}
	}
	return out
}
