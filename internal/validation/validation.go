// Package validation checks label files and OCR text against the class
// configuration: per-class regex patterns and required-class presence.
package validation

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"label-editor/internal/label"
)

// Result describes the validation outcome for one label file.
type Result struct {
	Valid          bool
	NoDAT          bool
	MissingClasses bool
	RegexErrors    bool
	BoxCount       int
	Err            string
}

// Status returns a short status keyword for display.
func (r Result) Status() string {
	switch {
	case r.Err != "":
		return "error"
	case r.NoDAT:
		return "no-dat"
	case r.MissingClasses:
		return "missing-classes"
	case r.RegexErrors:
		return "invalid-text"
	case r.Valid:
		return "valid"
	default:
		return "empty"
	}
}

// Summary aggregates validation results over a directory.
type Summary struct {
	Total          int
	Valid          int
	NoDAT          int
	MissingClasses int
	RegexErrors    int
	Errors         int
}

// Engine validates labels against a class configuration. Compiled regex
// patterns are cached per class.
type Engine struct {
	config *label.Config

	mu       sync.Mutex
	patterns map[int]*regexp.Regexp
	cache    map[string]Result
}

// NewEngine creates a validation engine.
func NewEngine(config *label.Config) *Engine {
	return &Engine{
		config:   config,
		patterns: make(map[int]*regexp.Regexp),
		cache:    make(map[string]Result),
	}
}

// ValidateText reports whether OCR text satisfies the class pattern. Empty
// text and classes without a pattern are valid.
func (e *Engine) ValidateText(text string, classID int) bool {
	if text == "" {
		return true
	}
	cls := e.config.ByID(classID)
	if cls == nil || cls.RegexPattern == "" {
		return true
	}

	re, err := e.pattern(classID, cls.RegexPattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// pattern compiles and caches the class pattern. Patterns are anchored at
// the start of the text; class configs assume match-from-start semantics.
func (e *Engine) pattern(classID int, raw string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.patterns[classID]; ok {
		return re, nil
	}
	anchored := raw
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^(?:" + anchored + ")"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, err
	}
	e.patterns[classID] = re
	return re, nil
}

// ValidateBoxes checks a box set for missing required classes and pattern
// failures.
func (e *Engine) ValidateBoxes(boxes []label.Box) Result {
	present := make(map[int]bool, len(boxes))
	regexErrors := false
	for _, b := range boxes {
		present[b.ClassID] = true
		if !e.ValidateText(b.OCRText, b.ClassID) {
			regexErrors = true
		}
	}

	missing := false
	for _, id := range e.config.RequiredIDs() {
		if !present[id] {
			missing = true
			break
		}
	}

	return Result{
		Valid:          len(boxes) > 0 && !missing && !regexErrors,
		MissingClasses: missing,
		RegexErrors:    regexErrors,
		BoxCount:       len(boxes),
	}
}

// ValidateFile validates the DAT file belonging to an image path.
func (e *Engine) ValidateFile(imagePath string) Result {
	datPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".dat"

	if _, err := os.Stat(datPath); err != nil {
		return Result{NoDAT: true}
	}

	boxes, _, err := label.ReadDAT(datPath)
	if err != nil {
		return Result{Err: err.Error()}
	}
	return e.ValidateBoxes(boxes)
}

// ValidateAll validates every image path and fills the result cache.
func (e *Engine) ValidateAll(imagePaths []string) map[string]Result {
	results := make(map[string]Result, len(imagePaths))
	for _, path := range imagePaths {
		results[path] = e.ValidateFile(path)
	}

	e.mu.Lock()
	e.cache = results
	e.mu.Unlock()
	return results
}

// Cached returns the cached result for an image path.
func (e *Engine) Cached(imagePath string) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.cache[imagePath]
	return r, ok
}

// Summarize aggregates a result set.
func Summarize(results map[string]Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != "":
			s.Errors++
		case r.NoDAT:
			s.NoDAT++
		case r.MissingClasses:
			s.MissingClasses++
		case r.RegexErrors:
			s.RegexErrors++
		case r.Valid:
			s.Valid++
		}
	}
	return s
}
