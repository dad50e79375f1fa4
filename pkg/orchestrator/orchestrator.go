// Package orchestrator builds posters from recipes, one at a time or in
// parallel batches.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/user/poster/pkg/adapters/nullsink"
	"github.com/user/poster/pkg/config"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/poster"
	"github.com/user/poster/pkg/source"
)

// Result describes a built poster.
type Result struct {
	Data       []byte
	Width      int
	Height     int
	Format     ports.ImageFormat
	Layers     int
	OutputPath string
}

// Orchestrator applies recipes to fresh canvases.
type Orchestrator struct {
	engine     ports.RasterEngine
	resolver   *source.Resolver
	qr         ports.QRGenerator
	fs         ports.FileSystem
	sink       ports.DebugSink
	logger     ports.Logger
	numWorkers int
	maxPixels  int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxPixels bounds every raster a recipe may allocate. See
// poster.Config.MaxPixels.
func WithMaxPixels(n int) Option {
	return func(o *Orchestrator) { o.maxPixels = n }
}

// New creates a new Orchestrator. numWorkers <= 0 uses one worker per CPU
// in RunBatch.
func New(
	engine ports.RasterEngine,
	resolver *source.Resolver,
	qr ports.QRGenerator,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
	numWorkers int,
	opts ...Option,
) *Orchestrator {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	o := &Orchestrator{
		engine:     engine,
		resolver:   resolver,
		qr:         qr,
		fs:         fs,
		sink:       sink,
		logger:     logger,
		numWorkers: numWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run builds the poster described by recipe. When recipe.Output is set the
// encoded poster is also written there.
func (o *Orchestrator) Run(ctx context.Context, recipe config.Recipe) (Result, error) {
	o.logger.Info("Building poster with %d layers", len(recipe.Layers))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(recipe, "", "  "); err == nil {
			if err := o.sink.SaveRecipeJSON(data); err != nil {
				o.logger.Warn("Skipping debug snapshot: %s", err)
			}
		}
	}

	result, err := o.build(ctx, recipe, o.sink)
	if err != nil {
		o.logger.Error("Render failed: %s", err)
		return Result{}, err
	}

	if result.OutputPath != "" {
		o.logger.Info("Poster saved to %s", result.OutputPath)
	} else {
		o.logger.Info("Poster rendered: %dx%d %s, %d bytes", result.Width, result.Height, result.Format, len(result.Data))
	}
	return result, nil
}

func (o *Orchestrator) build(ctx context.Context, recipe config.Recipe, sink ports.DebugSink) (Result, error) {
	cfg, err := recipe.Poster.ToPosterConfig()
	if err != nil {
		return Result{}, fmt.Errorf("poster config: %w", err)
	}
	cfg.MaxPixels = o.maxPixels

	canvas := poster.New(cfg, o.engine, o.resolver, o.qr, o.fs, o.logger)
	defer canvas.Close()

	if cfg.FontPath != "" {
		if err := canvas.SetFont(cfg.FontPath); err != nil {
			return Result{}, fmt.Errorf("font: %w", err)
		}
	}

	if err := o.background(ctx, canvas, recipe.Background); err != nil {
		return Result{}, fmt.Errorf("background: %w", err)
	}

	for i, layer := range recipe.Layers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := o.applyLayer(ctx, canvas, layer); err != nil {
			return Result{}, fmt.Errorf("layer %d (%s): %w", i, layer.Kind(), err)
		}
		o.logger.Debug("Applied layer %d/%d (%s)", i+1, len(recipe.Layers), layer.Kind())

		if sink.Enabled() {
			if err := sink.SaveLayer(i, layer.Kind(), canvas.Image()); err != nil {
				o.logger.Warn("Skipping debug snapshot: %s", err)
			}
		}
	}

	width, height := canvas.Width(), canvas.Height()
	data, err := canvas.Save(recipe.Output)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Data:       data,
		Width:      width,
		Height:     height,
		Format:     cfg.Format,
		Layers:     len(recipe.Layers),
		OutputPath: recipe.Output,
	}, nil
}

func (o *Orchestrator) background(ctx context.Context, canvas *poster.Canvas, bg config.BackgroundConfig) error {
	if bg.Source != nil {
		src, err := bg.Source.ToSource()
		if err != nil {
			return err
		}
		if err := canvas.SetImageBackground(ctx, src); err != nil {
			return err
		}
		if bg.Width > 0 && bg.Height > 0 {
			return canvas.Resize(bg.Width, bg.Height)
		}
		return nil
	}

	fill := "none"
	if bg.Color != "" {
		fill = bg.Color
	}
	c, err := config.ParseColor(fill)
	if err != nil {
		return err
	}
	return canvas.SetEmptyBackground(bg.Width, bg.Height, c)
}

func (o *Orchestrator) applyLayer(ctx context.Context, canvas *poster.Canvas, layer config.Layer) error {
	switch {
	case layer.Image != nil:
		src, err := layer.Image.Source.ToSource()
		if err != nil {
			return err
		}
		opts, err := layer.Image.Options()
		if err != nil {
			return err
		}
		return canvas.AddImage(ctx, src, layer.Image.X, layer.Image.Y, opts)

	case layer.Text != nil:
		opts, err := layer.Text.Options()
		if err != nil {
			return err
		}
		return canvas.AddText(layer.Text.Text, layer.Text.X, layer.Text.Y, opts)

	case layer.Paragraph != nil:
		opts, err := layer.Paragraph.Options()
		if err != nil {
			return err
		}
		_, err = canvas.AddParagraph(layer.Paragraph.Text, layer.Paragraph.X, layer.Paragraph.Y, opts)
		return err

	case layer.Line != nil:
		opts, err := layer.Line.Options()
		if err != nil {
			return err
		}
		l := layer.Line
		return canvas.AddLine(l.X1, l.Y1, l.X2, l.Y2, opts)

	case layer.QRCode != nil:
		opts, err := layer.QRCode.Options()
		if err != nil {
			return err
		}
		return canvas.AddQRCode(ctx, layer.QRCode.Content, layer.QRCode.X, layer.QRCode.Y, opts)

	default:
		return fmt.Errorf("empty layer")
	}
}

// indexedResult holds a result with its recipe index for sorting.
type indexedResult struct {
	index  int
	result Result
}

// RunBatch builds every recipe on a pool of workers, each with its own
// canvas. Results are returned in recipe order. The first failure stops the
// batch. Debug snapshots are not taken in batch mode.
func (o *Orchestrator) RunBatch(ctx context.Context, recipes []config.Recipe) ([]Result, error) {
	if len(recipes) == 0 {
		return []Result{}, nil
	}

	numWorkers := min(o.numWorkers, len(recipes))
	o.logger.Info("Building %d posters with %d workers", len(recipes), numWorkers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(recipes))
	results := make(chan indexedResult, len(recipes))
	errChan := make(chan error, numWorkers)

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go o.worker(ctx, cancel, &wg, recipes, jobs, results, errChan)
	}

	for i := range recipes {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	collected := make([]indexedResult, 0, len(recipes))
	for r := range results {
		collected = append(collected, r)
	}

	if err := <-errChan; err != nil {
		o.logger.Error("Render failed: %s", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil && len(collected) < len(recipes) {
		return nil, err
	}

	// Sort by index to maintain order
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	out := make([]Result, len(collected))
	for i, r := range collected {
		out[i] = r.result
	}
	o.logger.Info("Batch completed: %d posters", len(out))
	return out, nil
}

// worker builds recipes from the jobs channel.
func (o *Orchestrator) worker(
	ctx context.Context,
	cancel context.CancelFunc,
	wg *sync.WaitGroup,
	recipes []config.Recipe,
	jobs <-chan int,
	results chan<- indexedResult,
	errChan chan<- error,
) {
	defer wg.Done()

	sink := nullsink.New()
	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := o.build(ctx, recipes[idx], sink)
		if err != nil {
			select {
			case errChan <- fmt.Errorf("recipe %d: %w", idx, err):
			default:
			}
			cancel()
			return
		}

		results <- indexedResult{index: idx, result: result}
	}
}
