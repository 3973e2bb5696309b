package project

import (
	"label-editor/internal/validation"
)

// ValidateAll runs label validation over every image in the directory and
// returns the aggregate summary. Per-file results stay cached in the engine
// for cursor-position lookups.
func (m *Manager) ValidateAll(engine *validation.Engine) validation.Summary {
	results := engine.ValidateAll(m.Images())
	return validation.Summarize(results)
}

// ValidateCurrent validates the image at the cursor, preferring the cached
// result when the engine has one.
func (m *Manager) ValidateCurrent(engine *validation.Engine) validation.Result {
	path := m.Current()
	if cached, ok := engine.Cached(path); ok {
		return cached
	}
	return engine.ValidateFile(path)
}
