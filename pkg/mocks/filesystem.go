package mocks

import (
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/user/poster/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Seeded files (AddFile) and
// files written through WriteFile share one namespace; Written lists only the
// latter, in write order.
type FileSystem struct {
	mu      sync.RWMutex
	files   map[string][]byte
	dirs    map[string]bool
	written []string

	WriteFileFunc func(path string, data []byte) error
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true, ".": true},
	}
}

func (m *FileSystem) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", p, fs.ErrNotExist)
	}
	return data, nil
}

func (m *FileSystem) WriteFile(p string, data []byte) error {
	if m.WriteFileFunc != nil {
		if err := m.WriteFileFunc(p, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(path.Dir(p))
	m.files[p] = data
	m.written = append(m.written, p)
	return nil
}

func (m *FileSystem) MkdirAll(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(p)
	return nil
}

func (m *FileSystem) mkdirs(p string) {
	for p = path.Clean(p); !m.dirs[p]; p = path.Dir(p) {
		m.dirs[p] = true
	}
}

func (m *FileSystem) Exists(p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[p]
	return isFile || m.dirs[path.Clean(p)], nil
}

// AddFile seeds an input file such as an image or font.
func (m *FileSystem) AddFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(path.Dir(p))
	m.files[p] = data
}

// GetFile returns the contents at p.
func (m *FileSystem) GetFile(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	return data, ok
}

// Written returns the paths passed to WriteFile, in order.
func (m *FileSystem) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.written...)
}

var _ ports.FileSystem = (*FileSystem)(nil)
