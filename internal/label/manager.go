package label

// Manager holds the working box set of one open document: selection,
// creation, deletion, and the unsaved-changes flag.
type Manager struct {
	config *Config
	boxes  []*Box

	selected *Box
	unsaved  bool

	// OnSelectionChanged fires with the newly selected box, or nil.
	OnSelectionChanged func(*Box)
	// OnBoxesChanged fires after any box mutation.
	OnBoxesChanged func()
}

// NewManager creates a manager for a class configuration.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// SetBoxes replaces the working set, resolving class names and clearing
// selection and the unsaved flag.
func (m *Manager) SetBoxes(boxes []Box) {
	m.boxes = make([]*Box, len(boxes))
	for i := range boxes {
		b := boxes[i]
		b.Name = m.config.NameFor(b.ClassID)
		b.Selected = false
		m.boxes[i] = &b
	}
	m.selected = nil
	m.unsaved = false
}

// Boxes returns the working set as values, in order.
func (m *Manager) Boxes() []Box {
	out := make([]Box, len(m.boxes))
	for i, b := range m.boxes {
		out[i] = *b
	}
	return out
}

// Count returns the number of boxes.
func (m *Manager) Count() int { return len(m.boxes) }

// Config returns the class configuration.
func (m *Manager) Config() *Config { return m.config }

// SetOCRText sets the recognized text of every box with the class id and
// reports whether anything changed.
func (m *Manager) SetOCRText(classID int, text string) bool {
	changed := false
	for _, b := range m.boxes {
		if b.ClassID == classID && b.OCRText != text {
			b.OCRText = text
			changed = true
		}
	}
	if changed {
		m.markChanged()
	}
	return changed
}

// Selected returns the selected box, or nil.
func (m *Manager) Selected() *Box { return m.selected }

// Unsaved reports whether the working set differs from the last save/load.
func (m *Manager) Unsaved() bool { return m.unsaved }

// ClearUnsaved marks the working set as saved.
func (m *Manager) ClearUnsaved() { m.unsaved = false }

// Select makes box the selection; nil clears it.
func (m *Manager) Select(box *Box) {
	if m.selected != nil {
		m.selected.Selected = false
	}
	m.selected = box
	if box != nil {
		box.Selected = true
	}
	if m.OnSelectionChanged != nil {
		m.OnSelectionChanged(box)
	}
}

// SelectNext cycles the selection through the working set.
func (m *Manager) SelectNext() {
	if len(m.boxes) == 0 {
		return
	}
	idx := -1
	for i, b := range m.boxes {
		if b == m.selected {
			idx = i
			break
		}
	}
	m.Select(m.boxes[(idx+1)%len(m.boxes)])
}

// BoxAt returns the topmost box containing (x, y), or nil.
func (m *Manager) BoxAt(x, y int) *Box {
	for i := len(m.boxes) - 1; i >= 0; i-- {
		if m.boxes[i].ContainsPoint(x, y) {
			return m.boxes[i]
		}
	}
	return nil
}

// Create adds a new box and selects it. The class defaults to the first
// configured class not yet present in the working set.
func (m *Manager) Create(x, y, width, height int) *Box {
	classID := 0
	if len(m.config.Classes) > 0 {
		classID = m.config.Classes[0].ID
		used := make(map[int]bool, len(m.boxes))
		for _, b := range m.boxes {
			used[b.ClassID] = true
		}
		for _, cls := range m.config.Classes {
			if !used[cls.ID] {
				classID = cls.ID
				break
			}
		}
	}

	box := NewBox(x, y, width, height, classID, "")
	box.Name = m.config.NameFor(classID)
	m.boxes = append(m.boxes, &box)
	m.markChanged()
	m.Select(&box)
	return &box
}

// DeleteSelected removes the selected box. Returns false when nothing is
// selected.
func (m *Manager) DeleteSelected() bool {
	if m.selected == nil {
		return false
	}
	for i, b := range m.boxes {
		if b == m.selected {
			m.boxes = append(m.boxes[:i], m.boxes[i+1:]...)
			break
		}
	}
	m.selected = nil
	m.markChanged()
	if m.OnSelectionChanged != nil {
		m.OnSelectionChanged(nil)
	}
	return true
}

// UpdateSelectedText sets the OCR text of the selected box.
func (m *Manager) UpdateSelectedText(text string) {
	if m.selected == nil {
		return
	}
	m.selected.OCRText = text
	m.markChanged()
}

// UpdateSelectedClass reassigns the selected box to another class.
func (m *Manager) UpdateSelectedClass(classID int) {
	if m.selected == nil {
		return
	}
	m.selected.ClassID = classID
	m.selected.Name = m.config.NameFor(classID)
	m.markChanged()
}

// MoveSelected offsets the selected box.
func (m *Manager) MoveSelected(dx, dy int) {
	if m.selected == nil {
		return
	}
	m.selected.X += dx
	m.selected.Y += dy
	m.markChanged()
}

func (m *Manager) markChanged() {
	m.unsaved = true
	if m.OnBoxesChanged != nil {
		m.OnBoxesChanged()
	}
}
