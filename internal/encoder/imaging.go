package encoder

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality matches the usual libjpeg default for archival output.
const DefaultJPEGQuality = 95

// ImagingEncoder encodes through imaging.Encode (jpeg, png, gif, tiff, bmp).
type ImagingEncoder struct {
	format imaging.Format
}

// NewImaging returns an encoder for one of imaging's built-in formats.
func NewImaging(f imaging.Format) *ImagingEncoder {
	return &ImagingEncoder{format: f}
}

func (e *ImagingEncoder) Format() string  { return formatName(e.format) }
func (e *ImagingEncoder) Available() bool { return true }

func (e *ImagingEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	opts := []imaging.EncodeOption{imaging.JPEGQuality(quality)}
	if e.format == imaging.PNG {
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err := imaging.Encode(&buf, img, e.format, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatName(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpeg"
	case imaging.PNG:
		return "png"
	case imaging.GIF:
		return "gif"
	case imaging.TIFF:
		return "tiff"
	case imaging.BMP:
		return "bmp"
	}
	return f.String()
}
