package mocks

import (
	"image"
	"sync"

	"github.com/user/poster/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	RecipeJSON []byte
	Layers     map[int]image.Image
	LayerKinds map[int]string
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:    enabled,
		Layers:     make(map[int]image.Image),
		LayerKinds: make(map[int]string),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveRecipeJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecipeJSON = data
	return nil
}

func (m *DebugSink) SaveLayer(index int, kind string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Layers[index] = img
	m.LayerKinds[index] = kind
	return nil
}

// LayerCount returns the number of saved layer snapshots.
func (m *DebugSink) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Layers)
}

var _ ports.DebugSink = (*DebugSink)(nil)
