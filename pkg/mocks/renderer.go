package mocks

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/user/poster/pkg/ports"
)

// ImageData returns bytes that the mock Engine decodes to a width x height raster.
func ImageData(width, height int) []byte {
	return []byte(fmt.Sprintf("IMG:%dx%d", width, height))
}

// Engine is a mock implementation of ports.RasterEngine.
//
// Text is measured as CharWidth x FontSize per rune (default 0.5), with
// Height = FontSize and Ascent = 0.8 x FontSize, which keeps wrapping and
// bounds tests independent of any font file.
type Engine struct {
	mu sync.Mutex

	CharWidth    float64
	MissingFonts map[string]bool

	Created      []*Raster
	MeasureCalls []string

	DecodeFunc      func(data []byte) (ports.Raster, error)
	EncodeFunc      func(r ports.Raster, format ports.ImageFormat, quality int) ([]byte, error)
	MeasureTextFunc func(text string, style ports.TextStyle) (ports.TextMetrics, error)
}

// NewEngine creates a new mock Engine.
func NewEngine() *Engine {
	return &Engine{CharWidth: 0.5, MissingFonts: make(map[string]bool)}
}

func (m *Engine) NewRaster(width, height int, bg color.Color) ports.Raster {
	r := &Raster{W: width, H: height, Fill: bg}
	m.track(r)
	return r
}

func (m *Engine) FromImage(img image.Image) ports.Raster {
	b := img.Bounds()
	r := &Raster{W: b.Dx(), H: b.Dy(), Source: img}
	m.track(r)
	return r
}

func (m *Engine) Decode(data []byte) (ports.Raster, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(data)
	}
	var w, h int
	if !strings.HasPrefix(string(data), "IMG:") {
		return nil, fmt.Errorf("%w: unknown format", ports.ErrDecode)
	}
	if _, err := fmt.Sscanf(string(data), "IMG:%dx%d", &w, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrDecode, err)
	}
	r := &Raster{W: w, H: h}
	m.track(r)
	return r, nil
}

func (m *Engine) Encode(r ports.Raster, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeFunc != nil {
		return m.EncodeFunc(r, format, quality)
	}
	if r.Image() == nil {
		return nil, fmt.Errorf("%w: raster released", ports.ErrEngine)
	}
	return []byte(fmt.Sprintf("%s:%dx%d", format, r.Width(), r.Height())), nil
}

func (m *Engine) MeasureText(text string, style ports.TextStyle) (ports.TextMetrics, error) {
	m.mu.Lock()
	m.MeasureCalls = append(m.MeasureCalls, text)
	m.mu.Unlock()

	if m.MeasureTextFunc != nil {
		return m.MeasureTextFunc(text, style)
	}
	if m.MissingFonts[style.FontPath] {
		return ports.TextMetrics{}, fmt.Errorf("%w: %s", ports.ErrFontNotFound, style.FontPath)
	}
	return ports.TextMetrics{
		Width:  float64(utf8.RuneCountInString(text)) * style.FontSize * m.CharWidth,
		Height: style.FontSize,
		Ascent: style.FontSize * 0.8,
	}, nil
}

func (m *Engine) track(r *Raster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, r)
}

var _ ports.RasterEngine = (*Engine)(nil)

// CompositeCall records one Composite invocation.
type CompositeCall struct {
	Width, Height int
	X, Y          int
}

// TextCall records one DrawText invocation.
type TextCall struct {
	Text  string
	X, Y  int
	Style ports.TextStyle
}

// LineCall records one DrawLine invocation.
type LineCall struct {
	X1, Y1, X2, Y2 int
	Color          color.Color
	Width          float64
}

// MaskCall records one RoundMask invocation.
type MaskCall struct {
	RadiusX, RadiusY float64
}

// Raster is a mock implementation of ports.Raster that records operations.
type Raster struct {
	W, H   int
	Fill   color.Color
	Source image.Image

	Scales     [][2]int
	Composites []CompositeCall
	Texts      []TextCall
	Lines      []LineCall
	Masks      []MaskCall
	Released   bool

	DrawTextErr error
}

func (m *Raster) Width() int {
	if m.Released {
		return 0
	}
	return m.W
}

func (m *Raster) Height() int {
	if m.Released {
		return 0
	}
	return m.H
}

func (m *Raster) Scale(width, height int) {
	m.Scales = append(m.Scales, [2]int{width, height})
	m.W, m.H = width, height
}

func (m *Raster) Composite(src ports.Raster, x, y int) {
	m.Composites = append(m.Composites, CompositeCall{Width: src.Width(), Height: src.Height(), X: x, Y: y})
}

func (m *Raster) DrawText(text string, x, y int, style ports.TextStyle) error {
	if m.DrawTextErr != nil {
		return m.DrawTextErr
	}
	m.Texts = append(m.Texts, TextCall{Text: text, X: x, Y: y, Style: style})
	return nil
}

func (m *Raster) DrawLine(x1, y1, x2, y2 int, c color.Color, width float64) {
	m.Lines = append(m.Lines, LineCall{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: c, Width: width})
}

func (m *Raster) RoundMask(radiusX, radiusY float64) {
	m.Masks = append(m.Masks, MaskCall{RadiusX: radiusX, RadiusY: radiusY})
}

func (m *Raster) Image() image.Image {
	if m.Released {
		return nil
	}
	return image.NewRGBA(image.Rect(0, 0, m.W, m.H))
}

func (m *Raster) Release() {
	m.Released = true
}

var _ ports.Raster = (*Raster)(nil)
