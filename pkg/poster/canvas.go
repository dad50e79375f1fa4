// Package poster composes raster posters: a background canvas with images,
// text, lines, QR codes and avatar variants placed on top.
//
// A Canvas is owned by one goroutine. Build several posters in parallel with
// one Canvas each.
package poster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/poster/pkg/avatar"
	"github.com/user/poster/pkg/geometry"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/source"
	"github.com/user/poster/pkg/textlayout"
)

// State is the lifecycle stage of a Canvas.
type State int

const (
	// StateEmpty means no background has been set.
	StateEmpty State = iota
	// StateReady means a background exists and elements can be added.
	StateReady
	// StateReleased means the raster was released by Save or Close.
	StateReleased
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// ImageInfo describes a resolved image.
type ImageInfo struct {
	Width  int
	Height int
}

// Canvas is a poster under construction.
type Canvas struct {
	cfg      Config
	engine   ports.RasterEngine
	resolver *source.Resolver
	qr       ports.QRGenerator
	fs       ports.FileSystem
	text     *textlayout.Engine
	avatars  *avatar.Generator
	logger   ports.Logger

	raster ports.Raster
	state  State
}

// New creates a Canvas. qr may be nil when QR codes are not used.
func New(
	cfg Config,
	engine ports.RasterEngine,
	resolver *source.Resolver,
	qr ports.QRGenerator,
	fs ports.FileSystem,
	logger ports.Logger,
) *Canvas {
	if cfg.Quality <= 0 {
		cfg.Quality = DefaultConfig().Quality
	}
	return &Canvas{
		cfg:      cfg,
		engine:   engine,
		resolver: resolver,
		qr:       qr,
		fs:       fs,
		text:     textlayout.New(engine),
		avatars:  avatar.New(engine),
		logger:   logger.WithComponent("canvas"),
	}
}

// State returns the lifecycle stage.
func (c *Canvas) State() State { return c.state }

// Config returns the current settings. Width and Height reflect the
// background once one is set.
func (c *Canvas) Config() Config { return c.cfg }

// Width returns the canvas width.
func (c *Canvas) Width() int { return c.cfg.Width }

// Height returns the canvas height.
func (c *Canvas) Height() int { return c.cfg.Height }

func (c *Canvas) bounds() geometry.Bounds {
	return geometry.Bounds{Width: c.cfg.Width, Height: c.cfg.Height}
}

func (c *Canvas) ready() error {
	switch c.state {
	case StateEmpty:
		return ports.ErrNoBackground
	case StateReleased:
		return ports.ErrCanvasReleased
	}
	return nil
}

// SetStrict toggles bounds validation.
func (c *Canvas) SetStrict(strict bool) {
	c.cfg.Strict = strict
}

// SetFont selects the font file used for text. An empty path restores the
// embedded default.
func (c *Canvas) SetFont(path string) error {
	if path != "" {
		ok, err := c.fs.Exists(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ports.ErrFontNotFound, path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ports.ErrFontNotFound, path)
		}
		if _, err := c.engine.MeasureText(" ", ports.TextStyle{FontPath: path, FontSize: 16}); err != nil {
			return fmt.Errorf("load font: %w", err)
		}
	}
	c.cfg.FontPath = path
	return nil
}

// SetFormat sets the output encoding.
func (c *Canvas) SetFormat(format ports.ImageFormat) {
	c.cfg.Format = format
}

// SetQuality sets the JPEG quality, clamped to 1-100.
func (c *Canvas) SetQuality(quality int) {
	c.cfg.Quality = min(max(quality, 1), 100)
}

// SetImageBackground uses the image at src as the background and adopts
// its size.
func (c *Canvas) SetImageBackground(ctx context.Context, src source.Source) error {
	if c.state == StateReleased {
		return ports.ErrCanvasReleased
	}
	raster, err := c.resolver.Resolve(ctx, src)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if err := c.checkArea("background", raster.Width(), raster.Height()); err != nil {
		raster.Release()
		return err
	}
	c.replace(raster)
	c.logger.Debug("Background %s (%dx%d)", src, c.cfg.Width, c.cfg.Height)
	return nil
}

// SetEmptyBackground creates a blank background filled with bg (nil is
// transparent). Non-positive sizes fall back to the configured size.
func (c *Canvas) SetEmptyBackground(width, height int, bg color.Color) error {
	if c.state == StateReleased {
		return ports.ErrCanvasReleased
	}
	if width <= 0 {
		width = c.cfg.Width
	}
	if height <= 0 {
		height = c.cfg.Height
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ports.ErrInvalidCoordinate, width, height)
	}
	if err := c.checkArea("canvas", width, height); err != nil {
		return err
	}
	if bg == nil {
		bg = color.Transparent
	}
	c.replace(c.engine.NewRaster(width, height, bg))
	c.logger.Debug("Empty background %dx%d", width, height)
	return nil
}

func (c *Canvas) replace(raster ports.Raster) {
	if c.raster != nil {
		c.raster.Release()
	}
	c.raster = raster
	c.cfg.Width = raster.Width()
	c.cfg.Height = raster.Height()
	c.state = StateReady
}

// checkArea rejects a width x height raster above cfg.MaxPixels.
func (c *Canvas) checkArea(what string, width, height int) error {
	if c.cfg.MaxPixels <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	// width*height > max without overflowing on absurd sizes
	if width > c.cfg.MaxPixels/height {
		return fmt.Errorf("%w: %s %dx%d exceeds the %d pixel limit", ports.ErrOutOfBounds, what, width, height, c.cfg.MaxPixels)
	}
	return nil
}

func (c *Canvas) checkGlyph(style ports.TextStyle) error {
	side := int(math.Ceil(style.FontSize))
	return c.checkArea("font size", side, side)
}

// checkAvatar bounds the frame a bordered avatar allocates around a
// side x side image.
func (c *Canvas) checkAvatar(side int, spec avatar.Spec) error {
	if spec.Variant != avatar.RoundedBordered {
		return nil
	}
	framed := side + 2*max(spec.Options.BorderWidth, 0)
	return c.checkArea("avatar", framed, framed)
}

// Resize rescales the background to width x height.
func (c *Canvas) Resize(width, height int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ports.ErrInvalidCoordinate, width, height)
	}
	if err := c.checkArea("canvas", width, height); err != nil {
		return err
	}
	c.raster.Scale(width, height)
	c.cfg.Width = c.raster.Width()
	c.cfg.Height = c.raster.Height()
	return nil
}

// AddImage pastes the image at src with its top-left corner at (x, y),
// optionally resized and masked as an avatar.
func (c *Canvas) AddImage(ctx context.Context, src source.Source, x, y int, opts ImageOptions) error {
	if err := c.ready(); err != nil {
		return err
	}

	img, err := c.resolver.Resolve(ctx, src)
	if err != nil {
		return fmt.Errorf("add image: %w", err)
	}

	w, h := targetSize(img.Width(), img.Height(), opts.Width, opts.Height)
	if err := c.checkArea("image", w, h); err != nil {
		img.Release()
		return fmt.Errorf("add image: %w", err)
	}
	if opts.Avatar != nil {
		if err := c.checkAvatar(w, *opts.Avatar); err != nil {
			img.Release()
			return fmt.Errorf("add image: %w", err)
		}
	}
	if w != img.Width() || h != img.Height() {
		img.Scale(w, h)
	}

	if opts.Avatar != nil {
		masked, err := c.avatars.Apply(img, *opts.Avatar)
		if err != nil {
			img.Release()
			return fmt.Errorf("add image: %w", err)
		}
		img = masked
	}
	defer img.Release()

	rect := geometry.Rect{X: x, Y: y, Width: img.Width(), Height: img.Height()}
	if err := geometry.ValidatePlacement(rect, c.bounds(), c.cfg.Strict); err != nil {
		return fmt.Errorf("add image: %w", err)
	}

	c.raster.Composite(img, x, y)
	c.logger.Debug("Image %s at (%d,%d) %dx%d", src, x, y, rect.Width, rect.Height)
	return nil
}

// targetSize resolves the requested size against the source size.
func targetSize(srcW, srcH, w, h int) (int, int) {
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0 && srcW > 0:
		return w, max(1, int(math.Round(float64(srcH)*float64(w)/float64(srcW))))
	case h > 0 && srcH > 0:
		return max(1, int(math.Round(float64(srcW)*float64(h)/float64(srcH)))), h
	default:
		return srcW, srcH
	}
}

// AddText draws text with its baseline starting at (x, y).
func (c *Canvas) AddText(text string, x, y int, opts TextOptions) error {
	if err := c.ready(); err != nil {
		return err
	}

	style := opts.style(c.cfg.FontPath)
	if err := c.checkGlyph(style); err != nil {
		return fmt.Errorf("add text: %w", err)
	}
	m, err := c.text.Measure(text, style)
	if err != nil {
		return fmt.Errorf("add text: %w", err)
	}
	if err := geometry.ValidateText(x, y, m, c.bounds(), c.cfg.Strict); err != nil {
		return fmt.Errorf("add text %q: %w", text, err)
	}

	if err := c.raster.DrawText(text, x, y, style); err != nil {
		return fmt.Errorf("add text: %w", err)
	}
	c.logger.Debug("Text %q at (%d,%d) size %.0f", text, x, y, style.FontSize)
	return nil
}

// AddParagraph wraps text and draws the lines below each other, the first
// baseline at (x, y). Every line is validated before anything is drawn.
func (c *Canvas) AddParagraph(text string, x, y int, opts ParagraphOptions) ([]textlayout.PlacedLine, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	style := opts.style(c.cfg.FontPath)
	if err := c.checkGlyph(style); err != nil {
		return nil, fmt.Errorf("add paragraph: %w", err)
	}
	spans, err := c.text.Wrap(text, style, c.maxWidth(opts.MaxWidth))
	if err != nil {
		return nil, fmt.Errorf("add paragraph: %w", err)
	}

	lines := textlayout.Layout(spans, x, y, opts.LineHeight)
	for i, l := range lines {
		m := ports.TextMetrics{Width: l.Width, Height: l.Height}
		if err := geometry.ValidateText(l.X, l.Y, m, c.bounds(), c.cfg.Strict); err != nil {
			return nil, fmt.Errorf("add paragraph line %d: %w", i, err)
		}
	}

	for _, l := range lines {
		if err := c.raster.DrawText(l.Text, l.X, l.Y, style); err != nil {
			return nil, fmt.Errorf("add paragraph: %w", err)
		}
	}
	c.logger.Debug("Paragraph of %d lines at (%d,%d)", len(lines), x, y)
	return lines, nil
}

// AddLine strokes a line between two points.
func (c *Canvas) AddLine(x1, y1, x2, y2 int, opts LineOptions) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := geometry.ValidateLine(x1, y1, x2, y2, c.bounds(), c.cfg.Strict); err != nil {
		return fmt.Errorf("add line: %w", err)
	}

	col := opts.Color
	if col == nil {
		col = DefaultLineColor
	}
	stroke := opts.Stroke
	if stroke <= 0 {
		stroke = 1
	}
	c.raster.DrawLine(x1, y1, x2, y2, col, stroke)
	return nil
}

// AddQRCode renders content as a QR code with its top-left corner at (x, y).
func (c *Canvas) AddQRCode(ctx context.Context, content string, x, y int, opts QRCodeOptions) error {
	if err := c.ready(); err != nil {
		return err
	}
	code, err := c.QRCode(ctx, content, opts)
	if err != nil {
		return fmt.Errorf("add qrcode: %w", err)
	}
	defer code.Release()

	rect := geometry.Rect{X: x, Y: y, Width: code.Width(), Height: code.Height()}
	if err := geometry.ValidatePlacement(rect, c.bounds(), c.cfg.Strict); err != nil {
		return fmt.Errorf("add qrcode: %w", err)
	}
	c.raster.Composite(code, x, y)
	c.logger.Debug("QR code at (%d,%d) %dx%d", x, y, rect.Width, rect.Height)
	return nil
}

// QRCode renders content as a standalone QR code raster owned by the caller.
// It does not need a background.
func (c *Canvas) QRCode(ctx context.Context, content string, opts QRCodeOptions) (ports.Raster, error) {
	if c.qr == nil {
		return nil, fmt.Errorf("%w: no QR generator configured", ports.ErrEngine)
	}
	if err := c.checkArea("qrcode", opts.Size, opts.Size); err != nil {
		return nil, err
	}
	img, err := c.qr.Generate(content, opts.QROptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEngine, err)
	}
	code := c.engine.FromImage(img)

	if opts.Logo != nil {
		logo, err := c.resolver.Resolve(ctx, *opts.Logo)
		if err != nil {
			code.Release()
			return nil, fmt.Errorf("qrcode logo: %w", err)
		}
		side := int(math.Round(float64(code.Width()) / 3.3))
		logo.Scale(side, side)
		code.Composite(logo, (code.Width()-side)/2, (code.Height()-side)/2)
		logo.Release()
	}
	return code, nil
}

// MeasureText returns the extents of text with the canvas font.
func (c *Canvas) MeasureText(text string, opts TextOptions) (ports.TextMetrics, error) {
	return c.text.Measure(text, opts.style(c.cfg.FontPath))
}

// WrapText breaks text into lines narrower than maxWidth. A non-positive
// maxWidth wraps at the canvas width.
func (c *Canvas) WrapText(text string, opts TextOptions, maxWidth float64) ([]textlayout.LineSpan, error) {
	return c.text.Wrap(text, opts.style(c.cfg.FontPath), c.maxWidth(maxWidth))
}

func (c *Canvas) maxWidth(w float64) float64 {
	if w > 0 {
		return w
	}
	return float64(c.cfg.Width)
}

// ImageInfo resolves src and reports its size.
func (c *Canvas) ImageInfo(ctx context.Context, src source.Source) (ImageInfo, error) {
	img, err := c.resolver.Resolve(ctx, src)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("image info: %w", err)
	}
	defer img.Release()
	return ImageInfo{Width: img.Width(), Height: img.Height()}, nil
}

// BuildAvatar resolves src and applies the avatar variant. The returned
// raster is owned by the caller; pass it to AddImage via source.Raster or
// write it with SaveRaster.
func (c *Canvas) BuildAvatar(ctx context.Context, src source.Source, spec avatar.Spec) (ports.Raster, error) {
	img, err := c.resolver.Resolve(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	if err := c.checkAvatar(img.Width(), spec); err != nil {
		img.Release()
		return nil, fmt.Errorf("avatar: %w", err)
	}
	out, err := c.avatars.Apply(img, spec)
	if err != nil {
		img.Release()
		return nil, fmt.Errorf("avatar: %w", err)
	}
	return out, nil
}

// Image returns the current pixels, for debug snapshots.
func (c *Canvas) Image() image.Image {
	if c.raster == nil {
		return nil
	}
	return c.raster.Image()
}

// Save encodes the poster and releases the canvas. With an empty dest the
// encoded bytes are returned; otherwise they are also written to dest.
func (c *Canvas) Save(dest string) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	defer c.Close()

	data, err := c.engine.Encode(c.raster, c.cfg.Format, c.cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if dest != "" {
		if err := c.fs.WriteFile(dest, data); err != nil {
			return nil, fmt.Errorf("save %s: %w", dest, err)
		}
		c.logger.Debug("Poster saved to %s", dest)
	}
	return data, nil
}

// SaveRaster encodes a standalone raster, such as an avatar, in the canvas
// format and releases it. With a non-empty dest the bytes are written there.
func (c *Canvas) SaveRaster(r ports.Raster, dest string) ([]byte, error) {
	defer r.Release()

	data, err := c.engine.Encode(r, c.cfg.Format, c.cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if dest != "" {
		if err := c.fs.WriteFile(dest, data); err != nil {
			return nil, fmt.Errorf("save %s: %w", dest, err)
		}
	}
	return data, nil
}

// Close releases the canvas. It is safe to call after Save and more than once.
func (c *Canvas) Close() {
	if c.raster != nil {
		c.raster.Release()
		c.raster = nil
		c.logger.Debug("Canvas released")
	}
	c.state = StateReleased
}
