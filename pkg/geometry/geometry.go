// Package geometry validates element placement against canvas bounds.
//
// All checks are no-ops unless strict is set; in non-strict mode content may
// extend past the canvas and is clipped when drawn.
package geometry

import (
	"fmt"

	"github.com/user/poster/pkg/ports"
)

// BottomBand is the height of the strip at the bottom of the canvas in which
// a text baseline triggers the vertical text check.
const BottomBand = 5

// Bounds is the canvas size.
type Bounds struct {
	Width  int
	Height int
}

// Rect is a placed element: origin plus size.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ValidatePlacement checks that r lies inside [0,W) x [0,H).
func ValidatePlacement(r Rect, b Bounds, strict bool) error {
	if !strict {
		return nil
	}
	if err := validateOrigin(r.X, r.Y); err != nil {
		return err
	}
	if r.X+r.Width > b.Width {
		return fmt.Errorf("%w: x %d + width %d exceeds canvas width %d", ports.ErrOutOfBounds, r.X, r.Width, b.Width)
	}
	if r.Y+r.Height > b.Height {
		return fmt.Errorf("%w: y %d + height %d exceeds canvas height %d", ports.ErrOutOfBounds, r.Y, r.Height, b.Height)
	}
	return nil
}

// ValidateText checks text drawn with its baseline at (x, y).
//
// Horizontally the measured width must fit. Vertically only baselines inside
// the bottom band (y > H-BottomBand) are checked: such text is accepted while
// its top edge y-height is still above the bottom of the canvas.
func ValidateText(x, y int, m ports.TextMetrics, b Bounds, strict bool) error {
	if !strict {
		return nil
	}
	if err := validateOrigin(x, y); err != nil {
		return err
	}
	if float64(x)+m.Width > float64(b.Width) {
		return fmt.Errorf("%w: text at x %d with width %.1f exceeds canvas width %d", ports.ErrOutOfBounds, x, m.Width, b.Width)
	}
	if y > b.Height-BottomBand && float64(y)-m.Height >= float64(b.Height) {
		return fmt.Errorf("%w: text at baseline %d with height %.1f lies below canvas height %d", ports.ErrOutOfBounds, y, m.Height, b.Height)
	}
	return nil
}

// ValidateLine checks that both endpoints lie inside [0,W] x [0,H].
func ValidateLine(x1, y1, x2, y2 int, b Bounds, strict bool) error {
	if !strict {
		return nil
	}
	for _, p := range [][2]int{{x1, y1}, {x2, y2}} {
		if err := validateOrigin(p[0], p[1]); err != nil {
			return err
		}
		if p[0] > b.Width || p[1] > b.Height {
			return fmt.Errorf("%w: line endpoint (%d,%d) outside %dx%d canvas", ports.ErrOutOfBounds, p[0], p[1], b.Width, b.Height)
		}
	}
	return nil
}

func validateOrigin(x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: (%d,%d)", ports.ErrInvalidCoordinate, x, y)
	}
	return nil
}
