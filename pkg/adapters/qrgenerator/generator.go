// Package qrgenerator renders QR codes with yeqown/go-qrcode.
package qrgenerator

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"golang.org/x/image/draw"

	"github.com/user/poster/pkg/ports"
)

// moduleWidth is the pixel size of one module before the code is
// scaled to the requested size.
const moduleWidth = 8

// Generator implements ports.QRGenerator.
type Generator struct {
	level qrcode.EncodeOption
}

// New creates a Generator using the highest error correction level,
// which leaves room for a centered logo.
func New() *Generator {
	return &Generator{level: qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest)}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Generate renders content into a Size x Size image with a Margin quiet zone.
func (g *Generator) Generate(content string, opts ports.QROptions) (image.Image, error) {
	opts = withDefaults(opts)
	inner := opts.Size - 2*opts.Margin
	if inner <= 0 {
		return nil, fmt.Errorf("qrcode: margin %d leaves no room in %dpx", opts.Margin, opts.Size)
	}

	qrc, err := qrcode.NewWith(content, g.level)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}

	imageOpts := []standard.ImageOption{
		standard.WithQRWidth(moduleWidth),
		standard.WithBorderWidth(0),
		standard.WithFgColor(opts.Foreground),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	}
	if transparent(opts.Background) {
		imageOpts = append(imageOpts, standard.WithBgTransparent())
	} else {
		imageOpts = append(imageOpts, standard.WithBgColor(opts.Background))
	}

	var buf bytes.Buffer
	w := standard.NewWithWriter(nopCloser{&buf}, imageOpts...)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("qrcode: render: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("qrcode: render: %w", err)
	}

	code, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("qrcode: decode: %w", err)
	}

	out := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(out, out.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	target := image.Rect(opts.Margin, opts.Margin, opts.Margin+inner, opts.Margin+inner)
	draw.NearestNeighbor.Scale(out, target, code, code.Bounds(), draw.Src, nil)
	return out, nil
}

func withDefaults(opts ports.QROptions) ports.QROptions {
	def := ports.DefaultQROptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.Margin < 0 {
		opts.Margin = def.Margin
	}
	if opts.Foreground == nil {
		opts.Foreground = def.Foreground
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return opts
}

func transparent(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a == 0
}

// Ensure Generator implements ports.QRGenerator
var _ ports.QRGenerator = (*Generator)(nil)
