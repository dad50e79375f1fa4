package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/poster/pkg/avatar"
	"github.com/user/poster/pkg/config"
	"github.com/user/poster/pkg/orchestrator"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/poster"
	"github.com/user/poster/pkg/server"
	"github.com/user/poster/pkg/source"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     l10n.T("Render a poster from a recipe file"),
		ArgsUsage: "RECIPE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file path (overrides the recipe)"), Category: l10n.T(categoryOutput)},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Output format (png, jpeg)"), Category: l10n.T(categoryOutput)},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("JPEG quality (1-100)"), Category: l10n.T(categoryOutput)},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Canvas width for blank backgrounds"), Category: l10n.T(categoryCanvas)},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Canvas height for blank backgrounds"), Category: l10n.T(categoryCanvas)},
			&cli.BoolFlag{Name: "lenient", Usage: l10n.T("Allow elements to extend past the canvas"), Category: l10n.T(categoryCanvas)},
			&cli.StringFlag{Name: "font", Usage: l10n.T("Font file (TTF) for text"), Category: l10n.T(categoryText)},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("A recipe file argument is required"), 2)
			}
			recipe, err := config.LoadFromFile(c.Args().First())
			if err != nil {
				return err
			}
			applyOverrides(c, &recipe)
			if recipe.Output == "" {
				return cli.Exit(l10n.T("Output path is required (--output or recipe output)"), 2)
			}

			d, err := newDeps(c)
			if err != nil {
				return err
			}
			orch := orchestrator.New(d.engine, d.resolver, d.qr, d.fs, d.sink, d.log, 1)
			_, err = orch.Run(c.Context, recipe)
			return err
		},
	}
}

func applyOverrides(c *cli.Context, r *config.Recipe) {
	if c.IsSet("output") {
		r.Output = c.String("output")
	}
	if c.IsSet("format") {
		r.Poster.Format = c.String("format")
	} else if r.Output != "" && !formatInRecipe(r) {
		r.Poster.Format = formatForPath(r.Output).String()
	}
	if c.IsSet("quality") {
		r.Poster.Quality = c.Int("quality")
	}
	if c.IsSet("width") {
		r.Poster.Width = c.Int("width")
	}
	if c.IsSet("height") {
		r.Poster.Height = c.Int("height")
	}
	if c.Bool("lenient") {
		strict := false
		r.Poster.Strict = &strict
	}
	if c.IsSet("font") {
		r.Poster.Font = c.String("font")
	}
}

// formatInRecipe reports whether the recipe chose a format other than the
// default.
func formatInRecipe(r *config.Recipe) bool {
	return r.Poster.Format != "" && r.Poster.Format != config.Defaults().Poster.Format
}

// formatForPath picks the encoding from a file extension.
func formatForPath(path string) ports.ImageFormat {
	return ports.ParseImageFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     l10n.T("Render several recipes in parallel"),
		ArgsUsage: "RECIPE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: l10n.T("Directory for the posters (default: each recipe's output)"), Category: l10n.T(categoryOutput)},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: l10n.T("Number of parallel workers (default: CPU count)")},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit(l10n.T("At least one recipe file is required"), 2)
			}

			recipes, err := loadBatch(c.Args().Slice(), c.String("output-dir"))
			if err != nil {
				return err
			}

			d, err := newDeps(c)
			if err != nil {
				return err
			}
			orch := orchestrator.New(d.engine, d.resolver, d.qr, d.fs, d.sink, d.log, c.Int("workers"))
			_, err = orch.RunBatch(c.Context, recipes)
			return err
		},
	}
}

// loadBatch reads the recipes and settles their output paths. Two recipes
// writing the same file is an error, since the pool would race on it.
func loadBatch(paths []string, outDir string) ([]config.Recipe, error) {
	recipes := make([]config.Recipe, 0, len(paths))
	owners := make(map[string]string, len(paths))
	for _, path := range paths {
		r, err := config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if outDir != "" {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			r.Output = filepath.Join(outDir, name+"."+extension(r.Poster.Format))
		}
		if r.Output == "" {
			return nil, cli.Exit(l10n.F("Recipe %s has no output path", path), 2)
		}
		out := filepath.Clean(r.Output)
		if prev, ok := owners[out]; ok {
			return nil, errors.New(l10n.F("Recipes %s and %s both write to %s", prev, path, out))
		}
		owners[out] = path
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func extension(format string) string {
	if f, err := config.ParseFormat(format); err == nil && f == ports.FormatJPEG {
		return "jpg"
	}
	return "png"
}

func avatarCommand() *cli.Command {
	return &cli.Command{
		Name:      "avatar",
		Usage:     l10n.T("Create a circular or rounded avatar from an image"),
		ArgsUsage: "SOURCE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output file path (required)"), Category: l10n.T(categoryOutput)},
			&cli.StringFlag{Name: "variant", Value: "circular", Usage: l10n.T("Variant (original, circular, rounded, rounded-bordered)"), Category: l10n.T(categoryAvatar)},
			&cli.Float64Flag{Name: "radius", Value: 0.2, Usage: l10n.T("Corner radius as a fraction of the width"), Category: l10n.T(categoryAvatar)},
			&cli.IntFlag{Name: "border-width", Value: 2, Usage: l10n.T("Border width in pixels"), Category: l10n.T(categoryAvatar)},
			&cli.StringFlag{Name: "border-color", Value: "white", Usage: l10n.T("Border color"), Category: l10n.T(categoryAvatar)},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("A source argument is required"), 2)
			}
			radius := c.Float64("radius")
			width := c.Int("border-width")
			spec, err := config.AvatarConfig{
				Variant:     c.String("variant"),
				Radius:      &radius,
				BorderWidth: &width,
				BorderColor: c.String("border-color"),
			}.ToSpec()
			if err != nil {
				return err
			}

			d, err := newDeps(c)
			if err != nil {
				return err
			}
			return writeAvatar(c, d, source.Parse(c.Args().First()), spec, c.String("output"))
		},
	}
}

func writeAvatar(c *cli.Context, d *deps, src source.Source, spec avatar.Spec, out string) error {
	canvas := d.canvas(out)
	img, err := canvas.BuildAvatar(c.Context, src, spec)
	if err != nil {
		return err
	}
	if _, err := canvas.SaveRaster(img, out); err != nil {
		return err
	}
	d.log.Info("Avatar saved to %s", out)
	return nil
}

// canvas returns a canvas for standalone rasters written to out.
func (d *deps) canvas(out string) *poster.Canvas {
	cfg := poster.DefaultConfig()
	cfg.Format = formatForPath(out)
	return poster.New(cfg, d.engine, d.resolver, d.qr, d.fs, d.log)
}

func qrcodeCommand() *cli.Command {
	defaults := ports.DefaultQROptions()
	return &cli.Command{
		Name:      "qrcode",
		Usage:     l10n.T("Generate a QR code image"),
		ArgsUsage: "CONTENT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output file path (required)"), Category: l10n.T(categoryOutput)},
			&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Value: defaults.Size, Usage: l10n.T("Image size in pixels"), Category: l10n.T(categoryQRCode)},
			&cli.IntFlag{Name: "margin", Value: defaults.Margin, Usage: l10n.T("Quiet zone in pixels"), Category: l10n.T(categoryQRCode)},
			&cli.StringFlag{Name: "logo", Usage: l10n.T("Logo image placed at the center"), Category: l10n.T(categoryQRCode)},
			&cli.StringFlag{Name: "foreground", Value: "black", Usage: l10n.T("Module color"), Category: l10n.T(categoryQRCode)},
			&cli.StringFlag{Name: "background", Value: "white", Usage: l10n.T("Background color"), Category: l10n.T(categoryQRCode)},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("A content argument is required"), 2)
			}
			margin := c.Int("margin")
			layer := config.QRCodeLayer{
				Content:    c.Args().First(),
				Size:       c.Int("size"),
				Margin:     &margin,
				Foreground: c.String("foreground"),
				Background: c.String("background"),
			}
			if logo := c.String("logo"); logo != "" {
				layer.Logo = &config.SourceConfig{Path: logo}
			}
			opts, err := layer.Options()
			if err != nil {
				return err
			}

			d, err := newDeps(c)
			if err != nil {
				return err
			}
			out := c.String("output")
			canvas := d.canvas(out)
			img, err := canvas.QRCode(c.Context, layer.Content, opts)
			if err != nil {
				return err
			}
			if _, err := canvas.SaveRaster(img, out); err != nil {
				return err
			}
			d.log.Info("QR code saved to %s", out)
			return nil
		},
	}
}

func measureCommand() *cli.Command {
	return &cli.Command{
		Name:      "measure",
		Usage:     l10n.T("Measure text and show how it wraps"),
		ArgsUsage: "TEXT",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "size", Aliases: []string{"s"}, Value: 16, Usage: l10n.T("Font size in pixels"), Category: l10n.T(categoryText)},
			&cli.IntFlag{Name: "weight", Usage: l10n.T("Font weight (100-900)"), Category: l10n.T(categoryText)},
			&cli.Float64Flag{Name: "max-width", Aliases: []string{"w"}, Usage: l10n.T("Wrap width in pixels"), Category: l10n.T(categoryText)},
			&cli.StringFlag{Name: "font", Usage: l10n.T("Font file (TTF) for text"), Category: l10n.T(categoryText)},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("A text argument is required"), 2)
			}
			d, err := newDeps(c)
			if err != nil {
				return err
			}

			canvas := d.canvas("")
			if err := canvas.SetFont(c.String("font")); err != nil {
				return err
			}
			text := c.Args().First()
			opts := poster.TextOptions{Size: c.Float64("size"), Weight: c.Int("weight")}

			m, err := canvas.MeasureText(text, opts)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintln(w, l10n.F("Width: %.1f px, height: %.1f px, ascent: %.1f px", m.Width, m.Height, m.Ascent))

			if maxWidth := c.Float64("max-width"); maxWidth > 0 {
				lines, err := canvas.WrapText(text, opts, maxWidth)
				if err != nil {
					return err
				}
				for i, l := range lines {
					fmt.Fprintf(w, "%3d  %6.1f  %s\n", i+1, l.Width, l.Text)
				}
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: l10n.T("Serve poster rendering over HTTP"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", EnvVars: []string{"POSTER_ADDR"}, Usage: l10n.T("Listen address"), Category: l10n.T(categoryServer)},
			&cli.BoolFlag{Name: "allow-local-files", Usage: l10n.T("Allow recipes to reference local files"), Category: l10n.T(categoryServer)},
			&cli.BoolFlag{Name: "allow-private-networks", Usage: l10n.T("Allow URL sources on loopback and private networks"), Category: l10n.T(categoryServer)},
			&cli.IntFlag{Name: "max-pixels", Value: server.DefaultMaxPixels, Usage: l10n.T("Largest raster area a request may allocate"), Category: l10n.T(categoryServer)},
			&cli.DurationFlag{Name: "render-timeout", Usage: l10n.T("Maximum time per request (0 = unlimited)"), Category: l10n.T(categoryServer)},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: l10n.T("Number of parallel workers (default: CPU count)")},
		},
		Action: func(c *cli.Context) error {
			d, err := newDeps(c)
			if err != nil {
				return err
			}
			maxPixels := c.Int("max-pixels")
			orch := orchestrator.New(d.engine, d.resolver, d.qr, d.fs, d.sink, d.log, c.Int("workers"),
				orchestrator.WithMaxPixels(maxPixels))
			srv := server.New(orch, d.engine, d.qr, d.log, server.Options{
				AllowLocalFiles:      c.Bool("allow-local-files"),
				AllowPrivateNetworks: c.Bool("allow-private-networks"),
				MaxPixels:            maxPixels,
				RenderTimeout:        c.Duration("render-timeout"),
			})
			return srv.ListenAndServe(c.Context, c.String("addr"))
		},
	}
}
