// Package ggrenderer provides a raster engine implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoding for image sources
	"image/jpeg"
	"image/png"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"

	"github.com/user/poster/pkg/ports"
)

// Renderer implements ports.RasterEngine using the gg library.
// Parsed fonts are cached by path, so one Renderer may be shared by
// several goroutines, each working on its own rasters.
type Renderer struct {
	mu        sync.RWMutex
	fonts     map[string]*truetype.Font
	maxPixels int
}

// DefaultMaxDecodePixels bounds the dimensions Decode accepts.
const DefaultMaxDecodePixels = 64 << 20

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxPixels sets the largest width*height Decode will allocate.
// Zero or less disables the check.
func WithMaxPixels(n int) Option {
	return func(r *Renderer) { r.maxPixels = n }
}

// New creates a new Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		fonts:     make(map[string]*truetype.Font),
		maxPixels: DefaultMaxDecodePixels,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRaster creates a blank raster filled with bg.
func (r *Renderer) NewRaster(width, height int, bg color.Color) ports.Raster {
	dc := gg.NewContext(width, height)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	return &Raster{renderer: r, dc: dc}
}

// FromImage copies img into a new raster.
func (r *Renderer) FromImage(img image.Image) ports.Raster {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Raster{renderer: r, dc: gg.NewContextForRGBA(dst)}
}

// Decode decodes PNG, JPEG or GIF data. The header is checked against
// the pixel limit before any pixels are decoded.
func (r *Renderer) Decode(data []byte) (ports.Raster, error) {
	if r.maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrDecode, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > r.maxPixels/cfg.Height {
			return nil, fmt.Errorf("%w: %dx%d image exceeds the %d pixel limit",
				ports.ErrDecode, cfg.Width, cfg.Height, r.maxPixels)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrDecode, err)
	}
	return r.FromImage(img), nil
}

// Encode encodes a raster to the specified format.
func (r *Renderer) Encode(raster ports.Raster, format ports.ImageFormat, quality int) ([]byte, error) {
	img := raster.Image()
	if img == nil {
		return nil, fmt.Errorf("%w: raster released", ports.ErrEngine)
	}

	var buf bytes.Buffer
	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("%w: encode JPEG: %v", ports.ErrEngine, err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encode PNG: %v", ports.ErrEngine, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format: %d", ports.ErrEngine, format)
	}

	return buf.Bytes(), nil
}

// MeasureText returns the advance width and line extents of text.
// Weight does not change the measurement.
func (r *Renderer) MeasureText(text string, style ports.TextStyle) (ports.TextMetrics, error) {
	face, err := r.face(style)
	if err != nil {
		return ports.TextMetrics{}, err
	}
	defer face.Close()

	m := face.Metrics()
	ascent := fixedToFloat(m.Ascent)
	return ports.TextMetrics{
		Width:  fixedToFloat(font.MeasureString(face, text)),
		Height: ascent + fixedToFloat(m.Descent),
		Ascent: ascent,
	}, nil
}

// LoadFont parses and caches the font at path.
func (r *Renderer) LoadFont(path string) error {
	_, err := r.font(path)
	return err
}

func (r *Renderer) font(path string) (*truetype.Font, error) {
	r.mu.RLock()
	f, ok := r.fonts[path]
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	data := gobold.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrFontNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read font: %v", ports.ErrEngine, err)
		}
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse font %q: %v", ports.ErrEngine, path, err)
	}

	r.mu.Lock()
	r.fonts[path] = f
	r.mu.Unlock()
	return f, nil
}

// face builds a fresh face; truetype faces keep a glyph cache and are not
// safe to share between goroutines.
func (r *Renderer) face(style ports.TextStyle) (font.Face, error) {
	f, err := r.font(style.FontPath)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: style.FontSize}), nil
}

// Ensure Renderer implements ports.RasterEngine
var _ ports.RasterEngine = (*Renderer)(nil)

// Raster implements ports.Raster using gg.Context.
type Raster struct {
	renderer *Renderer
	dc       *gg.Context
}

// Width returns the raster width, or 0 after Release.
func (c *Raster) Width() int {
	if c.dc == nil {
		return 0
	}
	return c.dc.Width()
}

// Height returns the raster height, or 0 after Release.
func (c *Raster) Height() int {
	if c.dc == nil {
		return 0
	}
	return c.dc.Height()
}

// Scale resamples the raster to width x height.
func (c *Raster) Scale(width, height int) {
	if c.dc == nil || (width == c.Width() && height == c.Height()) {
		return
	}
	src := c.dc.Image()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	c.dc = gg.NewContextForRGBA(dst)
}

// Composite draws src over the raster at (x, y).
func (c *Raster) Composite(src ports.Raster, x, y int) {
	img := src.Image()
	if c.dc == nil || img == nil {
		return
	}
	c.dc.DrawImage(img, x, y)
}

// DrawText draws text with its baseline at (x, y).
// Weights of 600 and above are emulated by overstriking.
func (c *Raster) DrawText(text string, x, y int, style ports.TextStyle) error {
	if c.dc == nil {
		return fmt.Errorf("%w: raster released", ports.ErrEngine)
	}
	face, err := c.renderer.face(style)
	if err != nil {
		return err
	}
	defer face.Close()

	c.dc.SetFontFace(face)
	if style.Color != nil {
		c.dc.SetColor(style.Color)
	} else {
		c.dc.SetColor(color.Black)
	}

	for dx := 0; dx <= overstrike(style); dx++ {
		c.dc.DrawString(text, float64(x+dx), float64(y))
	}
	return nil
}

func overstrike(style ports.TextStyle) int {
	if style.Weight < 600 {
		return 0
	}
	n := int(math.Round(style.FontSize * float64(style.Weight-500) / 4000))
	if n < 1 {
		n = 1
	}
	return n
}

// DrawLine draws a line between two points.
func (c *Raster) DrawLine(x1, y1, x2, y2 int, col color.Color, width float64) {
	if c.dc == nil {
		return
	}
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	c.dc.Stroke()
}

// RoundMask makes everything outside a rounded rectangle transparent.
// Radii are clamped to half the raster size.
func (c *Raster) RoundMask(radiusX, radiusY float64) {
	if c.dc == nil {
		return
	}
	w, h := float64(c.Width()), float64(c.Height())
	rx := math.Min(radiusX, w/2)
	ry := math.Min(radiusY, h/2)
	if rx <= 0 || ry <= 0 {
		return
	}

	out := gg.NewContext(c.Width(), c.Height())
	roundedRect(out, w, h, rx, ry)
	out.Clip()
	out.DrawImage(c.dc.Image(), 0, 0)
	out.ResetClip()
	c.dc = out
}

func roundedRect(dc *gg.Context, w, h, rx, ry float64) {
	dc.NewSubPath()
	dc.MoveTo(rx, 0)
	dc.LineTo(w-rx, 0)
	dc.DrawEllipticalArc(w-rx, ry, rx, ry, -math.Pi/2, 0)
	dc.LineTo(w, h-ry)
	dc.DrawEllipticalArc(w-rx, h-ry, rx, ry, 0, math.Pi/2)
	dc.LineTo(rx, h)
	dc.DrawEllipticalArc(rx, h-ry, rx, ry, math.Pi/2, math.Pi)
	dc.LineTo(0, ry)
	dc.DrawEllipticalArc(rx, ry, rx, ry, math.Pi, 3*math.Pi/2)
	dc.ClosePath()
}

// Image returns the raster pixels.
func (c *Raster) Image() image.Image {
	if c.dc == nil {
		return nil
	}
	return c.dc.Image()
}

// Release drops the pixel buffer.
func (c *Raster) Release() {
	c.dc = nil
}

// Ensure Raster implements ports.Raster
var _ ports.Raster = (*Raster)(nil)

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
