// Package textlayout measures text and breaks it into lines that fit a
// pixel width.
package textlayout

import (
	"fmt"
	"math"

	"github.com/go-text/typesetting/segmenter"

	"github.com/user/poster/pkg/ports"
)

// Measurer reports text extents. ports.RasterEngine satisfies it, so
// measuring and drawing resolve fonts the same way.
type Measurer interface {
	MeasureText(text string, style ports.TextStyle) (ports.TextMetrics, error)
}

// LineSpan is one wrapped line with its measured size.
type LineSpan struct {
	Text   string
	Width  float64
	Height float64
}

// PlacedLine is a LineSpan with the baseline origin it should be drawn at.
type PlacedLine struct {
	LineSpan
	X int
	Y int
}

// Engine measures and wraps text.
type Engine struct {
	measurer Measurer
}

// New creates an Engine backed by m.
func New(m Measurer) *Engine {
	return &Engine{measurer: m}
}

// Measure returns the extents of text rendered with style.
func (e *Engine) Measure(text string, style ports.TextStyle) (ports.TextMetrics, error) {
	m, err := e.measurer.MeasureText(text, style)
	if err != nil {
		return ports.TextMetrics{}, fmt.Errorf("measure text: %w", err)
	}
	return m, nil
}

// Wrap splits text into lines narrower than maxWidth.
//
// Text that already fits is returned as a single line. Otherwise grapheme
// clusters are added to the current line until the measured width would
// reach maxWidth, at which point the line is committed and the cluster starts
// the next one. A cluster that is wider than maxWidth on its own occupies a
// line by itself. Joining the Text of all lines yields the input.
func (e *Engine) Wrap(text string, style ports.TextStyle, maxWidth float64) ([]LineSpan, error) {
	whole, err := e.Measure(text, style)
	if err != nil {
		return nil, err
	}
	if whole.Width < maxWidth {
		return []LineSpan{{Text: text, Width: whole.Width, Height: whole.Height}}, nil
	}

	var (
		lines []LineSpan
		line  LineSpan
	)
	for _, unit := range Graphemes(text) {
		m, err := e.Measure(line.Text+unit, style)
		if err != nil {
			return nil, err
		}
		if m.Width >= maxWidth && line.Text != "" {
			lines = append(lines, line)
			if m, err = e.Measure(unit, style); err != nil {
				return nil, err
			}
			line = LineSpan{Text: unit, Width: m.Width, Height: m.Height}
			continue
		}
		line = LineSpan{Text: line.Text + unit, Width: m.Width, Height: m.Height}
	}
	return append(lines, line), nil
}

// Graphemes splits text into extended grapheme clusters, so combining marks,
// emoji modifier sequences and flags are never separated.
func Graphemes(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var seg segmenter.Segmenter
	seg.Init(runes)
	iter := seg.GraphemeIterator()

	var units []string
	for iter.Next() {
		units = append(units, string(iter.Grapheme().Text))
	}
	return units
}

// Layout assigns baselines to lines starting at (x, y). Consecutive
// baselines are lineHeight apart; a non-positive lineHeight uses the tallest
// line.
func Layout(lines []LineSpan, x, y int, lineHeight float64) []PlacedLine {
	if lineHeight <= 0 {
		for _, l := range lines {
			lineHeight = math.Max(lineHeight, l.Height)
		}
	}

	placed := make([]PlacedLine, len(lines))
	for i, l := range lines {
		placed[i] = PlacedLine{
			LineSpan: l,
			X:        x,
			Y:        y + int(math.Round(float64(i)*lineHeight)),
		}
	}
	return placed
}
