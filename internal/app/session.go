// Package app wires one open document into a labeling session: pixels,
// labels, rotation state, save coordination, OCR, and events.
package app

import (
	"context"
	"fmt"
	goimage "image"
	"log"
	"sync"

	docimage "label-editor/internal/image"
	"label-editor/internal/label"
	"label-editor/internal/ocr"
	"label-editor/internal/rotation"
	"label-editor/pkg/geometry"
)

// EventType identifies session events.
type EventType int

const (
	EventRotated EventType = iota
	EventBoxesChanged
	EventSaved
	EventOCRResult
	EventReset
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// OCRUpdate is the payload of EventOCRResult. Every RequestOCR call emits
// exactly one update: Err is set when recognition failed, Stale when the
// document was rotated or reset while recognition was in flight. Only
// updates with neither flag have been applied to the label set.
type OCRUpdate struct {
	ClassID int
	Result  ocr.Result
	Err     error
	Stale   bool
}

// Session is the state of one open document. Sessions are independent;
// nothing in here is shared across documents.
type Session struct {
	mu sync.RWMutex

	ImagePath string

	// base holds the pixels matching the committed baseline; displayed
	// tracks the current on-screen orientation.
	base      goimage.Image
	displayed goimage.Image

	Labels      *label.Manager
	State       *rotation.State
	Coordinator *rotation.Coordinator

	engine ocr.Engine

	// ocrMu serializes epoch advances against in-flight OCR delivery.
	ocrMu sync.Mutex

	listeners map[EventType][]EventListener
}

// NewSession opens an image and its label file. A missing label file starts
// an empty session; label dimensions recorded in the file are ignored in
// favor of the actual image.
func NewSession(imagePath string, config *label.Config, engine ocr.Engine, cfg rotation.Config) (*Session, error) {
	img, err := docimage.Load(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", imagePath, err)
	}
	dims := docimage.Dims(img)

	boxes, _, err := label.ReadDAT(rotation.LabelPathFor(imagePath))
	if err != nil {
		boxes = nil // no label file yet
	}

	state, err := rotation.NewState(boxes, dims)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ImagePath:   imagePath,
		base:        img,
		displayed:   img,
		Labels:      label.NewManager(config),
		State:       state,
		Coordinator: rotation.NewCoordinator(state, imagePath, cfg),
		engine:      engine,
		listeners:   make(map[EventType][]EventListener),
	}
	s.Labels.SetBoxes(boxes)
	s.Labels.OnBoxesChanged = s.boxesEdited
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// boxesEdited is the label manager callback for box mutations. SetBoxes
// does not fire it, so rotation sync never loops back into the state.
func (s *Session) boxesEdited() {
	s.State.SetDisplayed(s.Labels.Boxes())
	s.Emit(EventBoxesChanged, s.Labels.Boxes())
}

// Displayed returns the pixels in the current orientation.
func (s *Session) Displayed() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayed
}

// Rotate turns the document a quarter turn and keeps pixels and boxes in
// step.
func (s *Session) Rotate(dir geometry.Direction) error {
	s.ocrMu.Lock()
	if err := s.State.Rotate(dir); err != nil {
		s.ocrMu.Unlock()
		return err
	}

	s.mu.Lock()
	step := dir.Step().Normalized()
	rotated, err := rotation.RotatePixels(s.displayed, step)
	if err != nil {
		s.mu.Unlock()
		s.ocrMu.Unlock()
		return err
	}
	s.displayed = rotated
	s.mu.Unlock()

	s.Labels.SetBoxes(s.State.Displayed())
	s.ocrMu.Unlock()

	s.Emit(EventRotated, s.State.Angle())
	return nil
}

// Reset discards rotation and edits, returning to the committed baseline.
func (s *Session) Reset() {
	s.ocrMu.Lock()
	s.State.Reset()

	s.mu.Lock()
	s.displayed = s.base
	s.mu.Unlock()

	s.Labels.SetBoxes(s.State.Original())
	s.ocrMu.Unlock()

	s.Emit(EventReset, nil)
}

// SaveLabels writes only the label file for the current orientation.
func (s *Session) SaveLabels() error {
	if err := s.Coordinator.SaveLabelsOnly(); err != nil {
		return err
	}
	s.Labels.ClearUnsaved()
	s.Emit(EventSaved, s.Coordinator.LabelPath())
	return nil
}

// Save persists pixels and labels together. After a copy-mode save the
// session follows the coordinator to the new image path.
func (s *Session) Save(mode rotation.SaveMode) error {
	savedPath, err := s.Coordinator.SaveBoth(mode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ImagePath = savedPath
	s.base = s.displayed
	s.mu.Unlock()

	s.Labels.ClearUnsaved()
	s.Emit(EventSaved, savedPath)
	return nil
}

// RequestOCR recognizes the text of the given box asynchronously. The
// result is applied only if the document has not been rotated or reset in
// the meantime; stale results are dropped.
func (s *Session) RequestOCR(ctx context.Context, box label.Box) {
	if s.engine == nil {
		return
	}
	epoch := s.State.Epoch()
	region := docimage.Region(s.Displayed(), box.Rect())
	class := s.classFor(box.ClassID)

	go func() {
		result, err := s.engine.Recognize(ctx, region, class)
		if err != nil {
			log.Printf("OCR of %s failed: %v", class.Name, err)
			s.Emit(EventOCRResult, OCRUpdate{ClassID: box.ClassID, Err: err})
			return
		}
		s.deliverOCR(box.ClassID, result, epoch)
	}()
}

func (s *Session) deliverOCR(classID int, result ocr.Result, epoch uint64) {
	// ocrMu makes the epoch check and the text application atomic against
	// Rotate and Reset, which advance the epoch under the same lock.
	s.ocrMu.Lock()
	defer s.ocrMu.Unlock()

	if epoch != s.State.Epoch() {
		log.Printf("dropping stale OCR result for class %d", classID)
		s.Emit(EventOCRResult, OCRUpdate{ClassID: classID, Result: result, Stale: true})
		return
	}

	s.Labels.SetOCRText(classID, result.Text)
	s.Emit(EventOCRResult, OCRUpdate{ClassID: classID, Result: result})
}

func (s *Session) classFor(id int) label.Class {
	if cls := s.Labels.Config().ByID(id); cls != nil {
		return *cls
	}
	return label.Class{ID: id, Name: fmt.Sprintf("class_%d", id)}
}

// Close releases the OCR engine.
func (s *Session) Close() error {
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}
