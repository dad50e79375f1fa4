// Package avatar derives masked variants of a square image: circular,
// rounded-corner and rounded-corner with a border.
package avatar

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/user/poster/pkg/ports"
)

// Variant selects the mask applied to an avatar.
type Variant int

const (
	// Original leaves the image untouched.
	Original Variant = iota
	// Circular clips the image to a circle.
	Circular
	// Rounded clips the corners to arcs.
	Rounded
	// RoundedBordered clips the corners and frames the result with a border.
	RoundedBordered
)

var variantNames = map[Variant]string{
	Original:        "original",
	Circular:        "circular",
	Rounded:         "rounded",
	RoundedBordered: "rounded-bordered",
}

// String returns the variant name.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant converts a numeric variant code.
func ParseVariant(code int) (Variant, error) {
	v := Variant(code)
	if _, ok := variantNames[v]; !ok {
		return 0, fmt.Errorf("%w: %d", ports.ErrInvalidVariant, code)
	}
	return v, nil
}

// ParseVariantName converts a variant name such as "circular". Names are
// case-insensitive and "circle", "round" and "bordered" are accepted as
// aliases.
func ParseVariantName(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "original", "none":
		return Original, nil
	case "circular", "circle":
		return Circular, nil
	case "rounded", "round":
		return Rounded, nil
	case "rounded-bordered", "rounded_bordered", "bordered":
		return RoundedBordered, nil
	}
	return 0, fmt.Errorf("%w: %q", ports.ErrInvalidVariant, name)
}

// Options configures the rounded variants.
type Options struct {
	Radius      float64     // corner radius as a fraction of the width (default: 0.2)
	BorderWidth int         // border thickness in pixels (default: 2)
	BorderColor color.Color // border fill (default: white)
}

// DefaultOptions returns the default avatar options.
func DefaultOptions() Options {
	return Options{
		Radius:      0.2,
		BorderWidth: 2,
		BorderColor: color.White,
	}
}

// Spec is a variant together with its options.
type Spec struct {
	Variant Variant
	Options Options
}

// Generator applies avatar masks using a raster engine.
type Generator struct {
	engine ports.RasterEngine
}

// New creates a Generator.
func New(engine ports.RasterEngine) *Generator {
	return &Generator{engine: engine}
}

// Circular masks img to a circle of radius width/2, in place.
func (g *Generator) Circular(img ports.Raster) ports.Raster {
	r := float64(img.Width()) / 2
	img.RoundMask(r, r)
	return img
}

// Rounded rounds the corners of img with radius width*opts.Radius, in place.
func (g *Generator) Rounded(img ports.Raster, opts Options) ports.Raster {
	r := float64(img.Width()) * opts.Radius
	img.RoundMask(r, r)
	return img
}

// RoundedBordered rounds img, places it on a square of side
// width+2*border filled with the border color and rounds that square too.
// img is released and the new square is returned.
func (g *Generator) RoundedBordered(img ports.Raster, opts Options) ports.Raster {
	g.Rounded(img, opts)

	border := opts.BorderWidth
	if border < 0 {
		border = 0
	}
	bc := opts.BorderColor
	if bc == nil {
		bc = color.White
	}

	side := img.Width() + 2*border
	framed := g.engine.NewRaster(side, side, bc)
	framed.Composite(img, border, border)
	img.Release()

	r := math.Max(float64(side)*opts.Radius, 0)
	framed.RoundMask(r, r)
	return framed
}

// Apply produces the variant described by spec.
func (g *Generator) Apply(img ports.Raster, spec Spec) (ports.Raster, error) {
	switch spec.Variant {
	case Original:
		return img, nil
	case Circular:
		return g.Circular(img), nil
	case Rounded:
		return g.Rounded(img, spec.Options), nil
	case RoundedBordered:
		return g.RoundedBordered(img, spec.Options), nil
	default:
		return nil, fmt.Errorf("%w: %d", ports.ErrInvalidVariant, int(spec.Variant))
	}
}
