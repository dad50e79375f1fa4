// Package server exposes poster rendering over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/poster/pkg/adapters/httpfetcher"
	"github.com/user/poster/pkg/config"
	"github.com/user/poster/pkg/orchestrator"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/textlayout"
)

// DefaultMaxBodyBytes caps recipe request bodies.
const DefaultMaxBodyBytes = 8 << 20

// DefaultMaxPixels caps the area of any raster a request may ask for.
const DefaultMaxPixels = 16 << 20

// Options configures the Server.
type Options struct {
	// AllowLocalFiles lets recipes reference paths on the server. Off by
	// default; only URL and inline data sources are accepted then.
	AllowLocalFiles bool
	// AllowPrivateNetworks lets URL sources name loopback, private and
	// link-local hosts.
	AllowPrivateNetworks bool
	MaxBodyBytes         int64
	// MaxPixels bounds the poster, background, image, QR code and glyph
	// sizes a recipe may declare. The orchestrator should carry the same
	// limit for sizes only known while rendering.
	MaxPixels int
	// RenderTimeout bounds a single request. Zero means no limit.
	RenderTimeout time.Duration
}

// Server handles poster, QR code and text measurement requests.
type Server struct {
	orch   *orchestrator.Orchestrator
	engine ports.RasterEngine
	qr     ports.QRGenerator
	text   *textlayout.Engine
	logger ports.Logger
	opts   Options
}

// New creates a Server.
func New(orch *orchestrator.Orchestrator, engine ports.RasterEngine, qr ports.QRGenerator, logger ports.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Server{
		orch:   orch,
		engine: engine,
		qr:     qr,
		text:   textlayout.New(engine),
		logger: logger.WithComponent("server"),
		opts:   opts,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.logRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/posters", s.renderPoster)
		v1.GET("/qrcode", s.qrCode)
		v1.POST("/measure", s.measure)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.opts.RenderTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.opts.RenderTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) renderPoster(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if int64(len(body)) > s.opts.MaxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "recipe too large"})
		return
	}

	recipe, err := config.ParseRecipe(body)
	if err != nil {
		c.JSON(statusFor(err, http.StatusBadRequest), gin.H{"error": err.Error()})
		return
	}
	if !s.opts.AllowLocalFiles {
		if paths := localPaths(recipe); len(paths) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("local file sources are not allowed: %v", paths)})
			return
		}
		recipe.Poster.Font = ""
	}
	for _, u := range urlSources(recipe) {
		if err := httpfetcher.CheckURL(u, s.opts.AllowPrivateNetworks); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("url source not allowed: %v", err)})
			return
		}
	}
	if err := checkLimits(recipe, s.opts.MaxPixels); err != nil {
		c.JSON(statusFor(err, http.StatusBadRequest), gin.H{"error": err.Error()})
		return
	}
	// Never write files on behalf of a client.
	recipe.Output = ""

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.orch.Run(ctx, recipe)
	if err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Poster-Width", strconv.Itoa(result.Width))
	c.Header("X-Poster-Height", strconv.Itoa(result.Height))
	c.Data(http.StatusOK, result.Format.ContentType(), result.Data)
}

func (s *Server) qrCode(c *gin.Context) {
	content := c.Query("content")
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content parameter is required"})
		return
	}

	opts := ports.DefaultQROptions()
	if v := c.Query("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 21 || size > 2048 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 21 and 2048"})
			return
		}
		opts.Size = size
	}
	if v := c.Query("margin"); v != "" {
		margin, err := strconv.Atoi(v)
		if err != nil || margin < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid margin"})
			return
		}
		opts.Margin = margin
	}

	img, err := s.qr.Generate(content, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raster := s.engine.FromImage(img)
	defer raster.Release()

	data, err := s.engine.Encode(raster, ports.FormatPNG, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, ports.FormatPNG.ContentType(), data)
}

type measureRequest struct {
	Text     string  `json:"text" binding:"required"`
	Size     float64 `json:"size"`
	Weight   int     `json:"weight"`
	MaxWidth float64 `json:"max_width"`
}

type lineJSON struct {
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type measureResponse struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Ascent float64    `json:"ascent"`
	Lines  []lineJSON `json:"lines,omitempty"`
}

func (s *Server) measure(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	var req measureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Size <= 0 {
		req.Size = 16
	}
	if err := checkArea("glyph", glyphSide(req.Size), glyphSide(req.Size), s.opts.MaxPixels); err != nil {
		c.JSON(statusFor(err, http.StatusBadRequest), gin.H{"error": err.Error()})
		return
	}
	style := ports.TextStyle{FontSize: req.Size, Weight: req.Weight}

	m, err := s.text.Measure(req.Text, style)
	if err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), gin.H{"error": err.Error()})
		return
	}
	resp := measureResponse{Width: m.Width, Height: m.Height, Ascent: m.Ascent}

	if req.MaxWidth > 0 {
		lines, err := s.text.Wrap(req.Text, style, req.MaxWidth)
		if err != nil {
			c.JSON(statusFor(err, http.StatusInternalServerError), gin.H{"error": err.Error()})
			return
		}
		for _, l := range lines {
			resp.Lines = append(resp.Lines, lineJSON{Text: l.Text, Width: l.Width, Height: l.Height})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps poster errors to HTTP status codes.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, ports.ErrInvalidCoordinate),
		errors.Is(err, ports.ErrOutOfBounds),
		errors.Is(err, ports.ErrInvalidVariant),
		errors.Is(err, ports.ErrFontNotFound),
		errors.Is(err, ports.ErrSourceNotFound),
		errors.Is(err, ports.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}

// localPaths lists the recipe's file system references.
func localPaths(r config.Recipe) []string {
	var paths []string
	add := func(sc *config.SourceConfig) {
		if sc == nil || sc.Path == "" {
			return
		}
		if src, err := sc.ToSource(); err == nil && src.Path != "" {
			paths = append(paths, sc.Path)
		}
	}

	add(r.Background.Source)
	for _, l := range r.Layers {
		if l.Image != nil {
			add(&l.Image.Source)
		}
		if l.QRCode != nil {
			add(l.QRCode.Logo)
		}
		if l.Text != nil && l.Text.Font != "" {
			paths = append(paths, l.Text.Font)
		}
		if l.Paragraph != nil && l.Paragraph.Font != "" {
			paths = append(paths, l.Paragraph.Font)
		}
	}
	return paths
}

// urlSources lists the recipe's remote references.
func urlSources(r config.Recipe) []string {
	var urls []string
	add := func(sc *config.SourceConfig) {
		if sc != nil && sc.URL != "" {
			urls = append(urls, sc.URL)
		}
	}

	add(r.Background.Source)
	for _, l := range r.Layers {
		if l.Image != nil {
			add(&l.Image.Source)
		}
		if l.QRCode != nil {
			add(l.QRCode.Logo)
		}
	}
	return urls
}

// checkLimits rejects recipes whose declared sizes exceed maxPixels
// before any raster is allocated.
func checkLimits(r config.Recipe, maxPixels int) error {
	if err := checkArea("poster", r.Poster.Width, r.Poster.Height, maxPixels); err != nil {
		return err
	}
	if err := checkArea("background", r.Background.Width, r.Background.Height, maxPixels); err != nil {
		return err
	}
	for i, l := range r.Layers {
		var err error
		switch {
		case l.Image != nil:
			err = checkArea("image", l.Image.Width, l.Image.Height, maxPixels)
		case l.QRCode != nil:
			err = checkArea("qrcode", l.QRCode.Size, l.QRCode.Size, maxPixels)
		case l.Text != nil:
			err = checkArea("glyph", glyphSide(l.Text.Size), glyphSide(l.Text.Size), maxPixels)
		case l.Paragraph != nil:
			err = checkArea("glyph", glyphSide(l.Paragraph.Size), glyphSide(l.Paragraph.Size), maxPixels)
		}
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

func checkArea(what string, width, height, maxPixels int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width > maxPixels/height {
		return fmt.Errorf("%w: %s %dx%d exceeds the %d pixel limit", ports.ErrOutOfBounds, what, width, height, maxPixels)
	}
	return nil
}

func glyphSide(size float64) int {
	if size <= 0 {
		return 0
	}
	if size >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(size))
}
