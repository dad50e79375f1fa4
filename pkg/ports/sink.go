package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving the recipe and per-layer snapshots while a poster is built.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRecipeJSON saves the normalized recipe as JSON.
	SaveRecipeJSON(data []byte) error

	// SaveLayer saves a snapshot of the canvas after the layer at index was applied.
	SaveLayer(index int, kind string, img image.Image) error
}
