// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/poster/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveRecipeJSON does nothing.
func (s *Sink) SaveRecipeJSON(data []byte) error {
	return nil
}

// SaveLayer does nothing.
func (s *Sink) SaveLayer(index int, kind string, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
