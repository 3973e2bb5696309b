package label

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"label-editor/pkg/geometry"
)

// DAT is the label persistence format: one ASCII line per box,
//
//	class_id x y w h #ocr_text
//
// sorted by class id with CRLF line endings. An optional leading
//
//	#frame W H
//
// record carries the frame dimensions at save time so a loader can detect
// that labels were written against a rotated copy of the image. Files written
// by older tools have no frame record and parse with zero dims.

const frameRecordPrefix = "#frame"

var asciiReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"ﬁ", "fi", "ﬂ", "fl",
)

// sanitizeASCII normalizes typographic characters and drops anything that
// does not fit the format's ASCII encoding.
func sanitizeASCII(s string) string {
	s = asciiReplacer.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteDAT writes boxes to a DAT file. When dims is valid a frame record is
// written first.
func WriteDAT(path string, boxes []Box, dims geometry.Dims) error {
	sorted := CloneBoxes(boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClassID < sorted[j].ClassID
	})

	var lines []string
	if dims.Valid() {
		lines = append(lines, fmt.Sprintf("%s %d %d", frameRecordPrefix, dims.Width, dims.Height))
	}
	for _, b := range sorted {
		text := sanitizeASCII(b.OCRText)
		lines = append(lines, fmt.Sprintf("%d %d %d %d %d #%s",
			b.ClassID, b.X, b.Y, b.Width, b.Height, text))
	}

	content := strings.Join(lines, "\r\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return nil
}

// ReadDAT reads boxes from a DAT file. Malformed lines are skipped, matching
// the tolerant behavior expected of hand-edited label files. The returned
// dims are zero when the file has no frame record.
func ReadDAT(path string) ([]Box, geometry.Dims, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, geometry.Dims{}, fmt.Errorf("failed to read labels: %w", err)
	}

	var boxes []Box
	var dims geometry.Dims

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, frameRecordPrefix) {
			if d, ok := parseFrameRecord(line); ok {
				dims = d
			}
			continue
		}

		box, ok := parseBoxLine(line)
		if !ok {
			log.Printf("Skipping invalid label line in %s: %q", path, line)
			continue
		}
		boxes = append(boxes, box)
	}

	return boxes, dims, nil
}

func parseFrameRecord(line string) (geometry.Dims, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return geometry.Dims{}, false
	}
	w, errW := strconv.Atoi(fields[1])
	h, errH := strconv.Atoi(fields[2])
	if errW != nil || errH != nil {
		return geometry.Dims{}, false
	}
	return geometry.NewDims(w, h), true
}

func parseBoxLine(line string) (Box, bool) {
	// Class id ends at the first space or tab; older files mix both.
	sep := strings.IndexAny(line, " \t")
	if sep < 0 {
		return Box{}, false
	}

	classID, err := strconv.Atoi(line[:sep])
	if err != nil {
		return Box{}, false
	}

	coordPart := line[sep+1:]
	ocrText := ""
	if idx := strings.Index(coordPart, "#"); idx >= 0 {
		ocrText = coordPart[idx+1:]
		coordPart = coordPart[:idx]
	}

	coords := strings.Fields(coordPart)
	if len(coords) < 4 {
		return Box{}, false
	}

	vals := make([]int, 4)
	for i := 0; i < 4; i++ {
		// Coordinates may be written as floats; truncate like the readers
		// this format grew up with.
		f, err := strconv.ParseFloat(coords[i], 64)
		if err != nil {
			return Box{}, false
		}
		vals[i] = int(f)
	}

	return NewBox(vals[0], vals[1], vals[2], vals[3], classID, ocrText), true
}
