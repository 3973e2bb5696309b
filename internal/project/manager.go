package project

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"label-editor/internal/rotation"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// Manager tracks the images of one document directory and the position of
// the labeling cursor within it. Label writes requested through SaveLabels
// run on a single background goroutine so navigation never blocks on disk.
type Manager struct {
	mu     sync.Mutex
	dir    string
	images []string
	index  int

	saves chan saveRequest
	done  chan struct{}
}

type saveRequest struct {
	path  string
	write func() error
}

// Open scans a directory for document images and returns a manager
// positioned at the first one. Hidden files and rotated copies are listed
// like any other image; ordering is lexicographic for stable navigation.
func Open(dir string) (*Manager, error) {
	images, err := scanImages(dir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	m := &Manager{
		dir:    dir,
		images: images,
		saves:  make(chan saveRequest, 16),
		done:   make(chan struct{}),
	}
	go m.saveWorker()
	return m, nil
}

func scanImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

func (m *Manager) saveWorker() {
	defer close(m.done)
	for req := range m.saves {
		if err := req.write(); err != nil {
			log.Printf("background save of %s failed: %v", req.path, err)
		}
	}
}

// Close drains pending background saves and stops the worker.
func (m *Manager) Close() {
	close(m.saves)
	<-m.done
}

// Directory returns the scanned directory.
func (m *Manager) Directory() string { return m.dir }

// Images returns the image paths in navigation order.
func (m *Manager) Images() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.images))
	copy(out, m.images)
	return out
}

// Count returns the number of images.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Current returns the image at the cursor.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images[m.index]
}

// Index returns the cursor position.
func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Next advances the cursor, wrapping at the end, and returns the new image.
func (m *Manager) Next() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = (m.index + 1) % len(m.images)
	return m.images[m.index]
}

// Previous moves the cursor back, wrapping at the start.
func (m *Manager) Previous() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = (m.index - 1 + len(m.images)) % len(m.images)
	return m.images[m.index]
}

// Seek moves the cursor to the given image path. Unknown paths leave the
// cursor in place and return false.
func (m *Manager) Seek(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.images {
		if img == path {
			m.index = i
			return true
		}
	}
	return false
}

// LabelPath maps an image path to its label file path.
func LabelPath(imagePath string) string {
	return rotation.LabelPathFor(imagePath)
}

// SaveLabels queues a label write for the background worker. The write
// closure captures its own snapshot of the boxes; callers must not hand it
// live state.
func (m *Manager) SaveLabels(imagePath string, write func() error) {
	m.saves <- saveRequest{path: imagePath, write: write}
}

// Refresh rescans the directory, keeping the cursor on the current image
// when it still exists. Used after copy-mode saves create new files.
func (m *Manager) Refresh() error {
	images, err := scanImages(m.dir)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images found in %s", m.dir)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.images[m.index]
	m.images = images
	m.index = 0
	for i, img := range m.images {
		if img == current {
			m.index = i
			break
		}
	}
	return nil
}
