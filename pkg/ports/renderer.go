package ports

import (
	"image"
	"image/color"
)

// RasterEngine abstracts decoding, encoding and font metrics.
// Pixel operations live on the Raster handles it creates.
type RasterEngine interface {
	// NewRaster allocates a blank raster filled with bg.
	NewRaster(width, height int, bg color.Color) Raster

	// FromImage wraps an already decoded image. The pixels are copied.
	FromImage(img image.Image) Raster

	// Decode decodes encoded image bytes (PNG, JPEG, GIF).
	Decode(data []byte) (Raster, error)

	// Encode encodes the raster in the given format.
	// quality only applies to JPEG.
	Encode(r Raster, format ImageFormat, quality int) ([]byte, error)

	// MeasureText returns the extents of text rendered with style.
	MeasureText(text string, style TextStyle) (TextMetrics, error)
}

// Raster is an exclusively owned pixel buffer. All mutations happen in place.
type Raster interface {
	// Width returns the current width in pixels.
	Width() int

	// Height returns the current height in pixels.
	Height() int

	// Scale resizes the buffer to width x height.
	Scale(width, height int)

	// Composite draws src over the raster with its top-left corner at (x, y).
	Composite(src Raster, x, y int)

	// DrawText draws text with its baseline starting at (x, y).
	DrawText(text string, x, y int, style TextStyle) error

	// DrawLine strokes a line between two points.
	DrawLine(x1, y1, x2, y2 int, c color.Color, width float64)

	// RoundMask clips the corners to elliptical arcs with the given radii.
	RoundMask(radiusX, radiusY float64)

	// Image returns the current pixels. Nil after Release.
	Image() image.Image

	// Release drops the pixel buffer. Calling it twice is harmless.
	Release()
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontPath string // empty selects the embedded bold sans-serif face
	FontSize float64
	Weight   int // CSS-like 100-900, 0 means regular
	Color    color.Color
}

// TextMetrics holds measured text extents in pixels.
type TextMetrics struct {
	Width  float64
	Height float64
	Ascent float64
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
	FormatJPEG
)

// String returns the lowercase format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type for the format.
func (f ImageFormat) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ParseImageFormat parses a format name. Unknown names fall back to PNG.
func ParseImageFormat(s string) ImageFormat {
	switch s {
	case "jpeg", "jpg", "JPEG", "JPG":
		return FormatJPEG
	default:
		return FormatPNG
	}
}
