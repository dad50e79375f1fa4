// Package main provides the CLI entry point for poster.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/poster/pkg/adapters/filesink"
	"github.com/user/poster/pkg/adapters/ggrenderer"
	"github.com/user/poster/pkg/adapters/httpfetcher"
	"github.com/user/poster/pkg/adapters/logger"
	"github.com/user/poster/pkg/adapters/nullsink"
	"github.com/user/poster/pkg/adapters/osfilesystem"
	"github.com/user/poster/pkg/adapters/qrgenerator"
	"github.com/user/poster/pkg/ports"
	"github.com/user/poster/pkg/source"
)

var version = "dev"

const (
	categoryLogging = "Logging"
	categoryDebug   = "Debug"
	categoryOutput  = "Output"
	categoryCanvas  = "Canvas"
	categoryText    = "Text"
	categoryAvatar  = "Avatar"
	categoryQRCode  = "QR code"
	categoryServer  = "Server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "poster",
		Usage:   l10n.T("Compose share posters from images, text and QR codes"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Value:    "info",
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T(categoryLogging),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T(categoryLogging),
			},
			&cli.BoolFlag{
				Name:     "timestamps",
				Usage:    l10n.T("Prefix log lines with the time (always on for serve)"),
				Category: l10n.T(categoryLogging),
			},
			&cli.BoolFlag{
				Name:     "debug",
				Aliases:  []string{"d"},
				Usage:    l10n.T("Save the recipe and a snapshot after each layer"),
				Category: l10n.T(categoryDebug),
			},
			&cli.StringFlag{
				Name:     "debug-dir",
				Value:    "./debug",
				Usage:    l10n.T("Directory for debug output"),
				Category: l10n.T(categoryDebug),
			},
			&cli.DurationFlag{
				Name:  "fetch-timeout",
				Value: 30 * time.Second,
				Usage: l10n.T("Timeout for downloading remote images"),
			},
		},
		Commands: []*cli.Command{
			renderCommand(),
			batchCommand(),
			avatarCommand(),
			qrcodeCommand(),
			measureCommand(),
			serveCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("poster version %s", version))
					return nil
				},
			},
		},
	}
}

// deps holds the adapters shared by all commands.
type deps struct {
	log      ports.Logger
	fs       ports.FileSystem
	engine   *ggrenderer.Renderer
	fetcher  ports.Fetcher
	qr       ports.QRGenerator
	resolver *source.Resolver
	sink     ports.DebugSink
}

func newDeps(c *cli.Context) (*deps, error) {
	serving := c.Command != nil && c.Command.Name == "serve"

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		console := logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
		if c.Bool("timestamps") || serving {
			console = console.WithTimestamps()
		}
		log = console
	}

	fs := osfilesystem.New()
	var engineOpts []ggrenderer.Option
	fetchOpts := []httpfetcher.Option{httpfetcher.WithTimeout(c.Duration("fetch-timeout"))}
	if serving {
		engineOpts = append(engineOpts, ggrenderer.WithMaxPixels(c.Int("max-pixels")))
		if !c.Bool("allow-private-networks") {
			fetchOpts = append(fetchOpts, httpfetcher.WithBlockPrivateNetworks())
		}
	}
	engine := ggrenderer.New(engineOpts...)
	fetcher := httpfetcher.New(fetchOpts...)

	var sink ports.DebugSink
	if c.Bool("debug") {
		dir := c.String("debug-dir")
		if err := fs.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(dir, fs, engine)
	} else {
		sink = nullsink.New()
	}

	return &deps{
		log:      log,
		fs:       fs,
		engine:   engine,
		fetcher:  fetcher,
		qr:       qrgenerator.New(),
		resolver: source.NewResolver(fs, fetcher, engine, log),
		sink:     sink,
	}, nil
}
