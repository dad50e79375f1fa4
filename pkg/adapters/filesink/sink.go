// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/poster/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
	engine  ports.RasterEngine
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, engine ports.RasterEngine) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		engine:  engine,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveRecipeJSON saves the normalized recipe as recipe.json.
func (s *Sink) SaveRecipeJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "recipe.json")
	return s.fs.WriteFile(path, data)
}

// SaveLayer saves a canvas snapshot as layers/layer-NN-kind.png.
func (s *Sink) SaveLayer(index int, kind string, img image.Image) error {
	dir := filepath.Join(s.baseDir, "layers")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}

	snapshot := s.engine.FromImage(img)
	defer snapshot.Release()

	data, err := s.engine.Encode(snapshot, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode layer %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("layer-%02d-%s.png", index, kind))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
