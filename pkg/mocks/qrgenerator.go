package mocks

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/user/poster/pkg/ports"
)

// QRGenerator is a mock implementation of ports.QRGenerator.
// It returns a solid square of the requested size.
type QRGenerator struct {
	Contents []string

	GenerateFunc func(content string, opts ports.QROptions) (image.Image, error)
}

func (m *QRGenerator) Generate(content string, opts ports.QROptions) (image.Image, error) {
	m.Contents = append(m.Contents, content)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(content, opts)
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img, nil
}

var _ ports.QRGenerator = (*QRGenerator)(nil)
