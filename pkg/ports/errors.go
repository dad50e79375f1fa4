package ports

import "errors"

var (
	// ErrInvalidCoordinate is returned when a placement origin is negative.
	ErrInvalidCoordinate = errors.New("poster: invalid coordinate")

	// ErrOutOfBounds is returned when a placement exceeds the canvas in strict mode.
	ErrOutOfBounds = errors.New("poster: placement out of bounds")

	// ErrFontNotFound is returned when a font path does not resolve to a file.
	ErrFontNotFound = errors.New("poster: font not found")

	// ErrSourceNotFound is returned when a local image path does not exist.
	ErrSourceNotFound = errors.New("poster: image source not found")

	// ErrFetch is returned when a remote image cannot be downloaded.
	ErrFetch = errors.New("poster: fetch failed")

	// ErrDecode is returned for malformed image bytes.
	ErrDecode = errors.New("poster: decode failed")

	// ErrInvalidVariant is returned for an unknown avatar variant.
	ErrInvalidVariant = errors.New("poster: invalid avatar variant")

	// ErrEngine wraps opaque raster engine failures.
	ErrEngine = errors.New("poster: raster engine error")

	// ErrNoBackground is returned when composing before a background is set.
	ErrNoBackground = errors.New("poster: background not set")

	// ErrCanvasReleased is returned when using a canvas after Save or Close.
	ErrCanvasReleased = errors.New("poster: canvas already released")
)
