package encoder

import (
	"image"
)

// Encoder turns a transformed image into the bytes of one output format.
type Encoder interface {
	// Format returns the canonical format name ("jpeg", "png", "tiff", ...).
	Format() string

	// Encode converts the image to bytes. quality (1-100) only affects
	// lossy formats; 0 selects the encoder default.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available reports whether the encoder can run here. webp needs cwebp.
	Available() bool
}
