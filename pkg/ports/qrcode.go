package ports

import (
	"image"
	"image/color"
)

// QROptions configures QR code generation.
type QROptions struct {
	Size       int         // Edge length of the output in pixels (default: 330)
	Margin     int         // Quiet zone in pixels (default: 10)
	Foreground color.Color // Module color (default: black)
	Background color.Color // Background color (default: white)
}

// DefaultQROptions returns the QR defaults used for posters.
func DefaultQROptions() QROptions {
	return QROptions{
		Size:       330,
		Margin:     10,
		Foreground: color.Black,
		Background: color.White,
	}
}

// QRGenerator renders content as a QR code image.
type QRGenerator interface {
	Generate(content string, opts QROptions) (image.Image, error)
}
