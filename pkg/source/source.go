// Package source resolves image references (local paths, URLs, in-memory
// bytes or rasters) into decoded rasters.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/user/poster/pkg/ports"
)

// Kind identifies how a Source refers to its image.
type Kind int

const (
	KindPath Kind = iota
	KindURL
	KindBlob
	KindRaster
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindURL:
		return "url"
	case KindBlob:
		return "blob"
	case KindRaster:
		return "raster"
	default:
		return "unknown"
	}
}

// Source is a reference to an image. Exactly one of its payload fields is
// meaningful, as selected by Kind.
type Source struct {
	Kind   Kind
	Path   string
	URL    string
	Blob   []byte
	Raster ports.Raster
}

// Path refers to a local file.
func Path(p string) Source { return Source{Kind: KindPath, Path: p} }

// URL refers to a remote image.
func URL(u string) Source { return Source{Kind: KindURL, URL: u} }

// Blob wraps encoded image bytes.
func Blob(data []byte) Source { return Source{Kind: KindBlob, Blob: data} }

// Raster wraps an already decoded raster. The caller keeps ownership.
func Raster(r ports.Raster) Source { return Source{Kind: KindRaster, Raster: r} }

// Parse builds a Source from a bare command-line argument: http and https
// URLs become URL sources, everything else is a local path. Recipes name the
// kind explicitly and do not go through Parse.
func Parse(ref string) Source {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URL(ref)
	}
	return Path(ref)
}

// String describes the source for log messages.
func (s Source) String() string {
	switch s.Kind {
	case KindPath:
		return s.Path
	case KindURL:
		return s.URL
	case KindBlob:
		return fmt.Sprintf("<%d bytes>", len(s.Blob))
	case KindRaster:
		if s.Raster == nil {
			return "<nil raster>"
		}
		return fmt.Sprintf("<raster %dx%d>", s.Raster.Width(), s.Raster.Height())
	default:
		return "<unknown source>"
	}
}

// Resolver turns Sources into rasters.
type Resolver struct {
	fs      ports.FileSystem
	fetcher ports.Fetcher
	engine  ports.RasterEngine
	logger  ports.Logger
}

// NewResolver creates a Resolver. fetcher may be nil when URL sources are
// not needed; resolving a URL then fails with ErrFetch.
func NewResolver(fs ports.FileSystem, fetcher ports.Fetcher, engine ports.RasterEngine, logger ports.Logger) *Resolver {
	return &Resolver{
		fs:      fs,
		fetcher: fetcher,
		engine:  engine,
		logger:  logger.WithComponent("source"),
	}
}

// Resolve decodes src into a new raster owned by the caller.
func (r *Resolver) Resolve(ctx context.Context, src Source) (ports.Raster, error) {
	if src.Kind == KindRaster {
		if src.Raster == nil || src.Raster.Image() == nil {
			return nil, fmt.Errorf("%w: raster source is empty", ports.ErrDecode)
		}
		return r.engine.FromImage(src.Raster.Image()), nil
	}

	data, err := r.load(ctx, src)
	if err != nil {
		return nil, err
	}

	raster, err := r.engine.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	r.logger.Debug("Decoded %s (%dx%d)", src, raster.Width(), raster.Height())
	return raster, nil
}

func (r *Resolver) load(ctx context.Context, src Source) ([]byte, error) {
	switch src.Kind {
	case KindPath:
		data, err := r.fs.ReadFile(src.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, src.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ports.ErrSourceNotFound, src.Path, err)
		}
		return data, nil

	case KindURL:
		if r.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher configured for %s", ports.ErrFetch, src.URL)
		}
		r.logger.Debug("Fetching %s", src.URL)
		data, err := r.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			if errors.Is(err, ports.ErrFetch) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ports.ErrFetch, err)
		}
		return data, nil

	case KindBlob:
		if len(src.Blob) == 0 {
			return nil, fmt.Errorf("%w: empty image data", ports.ErrDecode)
		}
		return src.Blob, nil

	default:
		return nil, fmt.Errorf("%w: unknown source kind %d", ports.ErrSourceNotFound, int(src.Kind))
	}
}
