package ocr

import (
	"regexp"
	"strings"

	"label-editor/internal/label"
)

// mrzCorrections maps the letter/digit confusions tesseract makes on OCR-B
// machine-readable zones, which contain only [A-Z0-9<].
var mrzCorrections = strings.NewReplacer(
	"O", "0",
	"I", "1",
	"S", "5",
	"Z", "2",
	"B", "8",
	"G", "6",
)

// dateCorrections covers the confusions seen in numeric date components.
var dateCorrections = strings.NewReplacer(
	"O", "0",
	"I", "1",
	"S", "5",
)

// monthCorrections repairs misread three-letter month abbreviations in
// passport-style dates.
var monthCorrections = map[string]string{
	"JRN": "JAN", "JPN": "JAN",
	"FES": "FEB", "FER": "FEB",
	"MPR": "MAR", "MAB": "MAR",
	"PPR": "APR", "APB": "APR",
	"MPY": "MAY", "MAT": "MAY",
}

var docNumberPattern = regexp.MustCompile(`^[MPS][0-9]{8}$`)

var whitespace = regexp.MustCompile(`\s+`)

// Postprocess cleans raw OCR output according to the field type. When the
// cleaned text still fails the class validation pattern, a second
// pattern-guided correction pass runs.
func Postprocess(text, fieldType, pattern string) string {
	switch fieldType {
	case label.FieldMRZ:
		text = postprocessMRZ(text)
	case label.FieldDate:
		text = postprocessDate(text)
	case label.FieldSingleChar:
		text = strings.TrimSpace(strings.ToUpper(text))
		if len(text) > 1 {
			text = text[:1]
		}
	case label.FieldAlphanumeric:
		text = keepAlphanumeric(strings.ToUpper(text))
	default:
		text = strings.TrimSpace(text)
	}

	if pattern != "" && !matchesFromStart(pattern, text) {
		text = autocorrect(text, fieldType, pattern)
	}
	return text
}

func postprocessMRZ(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '<' {
			b.WriteRune(r)
		}
	}
	return mrzCorrections.Replace(b.String())
}

func postprocessDate(text string) string {
	text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	return dateCorrections.Replace(text)
}

func keepAlphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchesFromStart anchors the class pattern at the start of the text,
// mirroring the match-from-start semantics class configs assume.
func matchesFromStart(pattern, text string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return true // unusable pattern, skip correction
	}
	return re.MatchString(text)
}

// autocorrect nudges text that failed its validation pattern. Only the
// document-number shape and date month abbreviations are touched; anything
// else is returned unchanged rather than guessed at.
func autocorrect(text, fieldType, pattern string) string {
	switch {
	case strings.Contains(pattern, docNumberPattern.String()):
		return autocorrectDocNumber(text)
	case fieldType == label.FieldDate:
		return autocorrectDate(text)
	}
	return text
}

func autocorrectDocNumber(text string) string {
	fixed := dateCorrections.Replace(text)
	if fixed != "" {
		switch fixed[0] {
		case 'm', 'p', 's':
			fixed = strings.ToUpper(fixed[:1]) + fixed[1:]
		}
	}
	// The digit pass just turned a leading S into a 5; undo it when the
	// letter reading is the one that validates.
	if !docNumberPattern.MatchString(fixed) && fixed != "" && fixed[0] == '5' {
		if candidate := "S" + fixed[1:]; docNumberPattern.MatchString(candidate) {
			fixed = candidate
		}
	}
	return fixed
}

func autocorrectDate(text string) string {
	for wrong, correct := range monthCorrections {
		text = strings.ReplaceAll(text, wrong, correct)
	}
	return text
}
