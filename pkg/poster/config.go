package poster

import (
	"image/color"

	"github.com/user/poster/pkg/avatar"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/source"
)

// Config contains the canvas settings.
type Config struct {
	Strict   bool
	Width    int // used by SetEmptyBackground when no size is given
	Height   int
	Format   ports.ImageFormat
	Quality  int    // JPEG quality (1-100)
	FontPath string // empty selects the embedded bold face

	// MaxPixels bounds every raster the canvas allocates: the background,
	// scaled images, avatar frames, QR codes and glyphs (size x size).
	// Zero means no limit.
	MaxPixels int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Strict:  true,
		Width:   1064,
		Height:  600,
		Format:  ports.FormatPNG,
		Quality: 90,
	}
}

// ImageOptions controls AddImage. A zero Width or Height keeps the source
// size on that axis, or the aspect ratio when only one of them is set.
type ImageOptions struct {
	Width  int
	Height int
	Avatar *avatar.Spec
}

// TextOptions controls AddText.
type TextOptions struct {
	Size     float64     // default: 16
	Color    color.Color // default: black
	Weight   int         // 0 means regular
	FontPath string      // overrides the canvas font
}

// ParagraphOptions controls AddParagraph.
type ParagraphOptions struct {
	TextOptions
	MaxWidth   float64 // <= 0 wraps at the canvas width
	LineHeight float64 // <= 0 uses the tallest measured line
}

// LineOptions controls AddLine.
type LineOptions struct {
	Color  color.Color // default: gray
	Stroke float64     // default: 1
}

// QRCodeOptions controls AddQRCode.
type QRCodeOptions struct {
	ports.QROptions
	Logo *source.Source // composited at the center, about a third of the size
}

// DefaultLineColor is the stroke color used when LineOptions.Color is nil.
var DefaultLineColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

func (o TextOptions) style(fontPath string) ports.TextStyle {
	s := ports.TextStyle{
		FontPath: fontPath,
		FontSize: o.Size,
		Weight:   o.Weight,
		Color:    o.Color,
	}
	if o.FontPath != "" {
		s.FontPath = o.FontPath
	}
	if s.FontSize <= 0 {
		s.FontSize = 16
	}
	if s.Color == nil {
		s.Color = color.Black
	}
	return s
}
