// Package transform decodes source images and normalizes their color space
// and size for the corpus.
package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// BinaryThreshold is the fixed cutoff for binary conversion. Pixels strictly
// above it become white.
const BinaryThreshold = 127

// ErrDecode marks a file that could not be decoded as an image.
var ErrDecode = errors.New("decode image")

// Decode reads an image honoring its EXIF orientation. Gray and binary modes
// return a single-channel *image.Gray.
func Decode(r io.Reader, mode ColorMode) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrDecode, b.Dx(), b.Dy())
	}

	switch mode {
	case ColorGray:
		return ToGray(img), nil
	case ColorBinary:
		return Threshold(ToGray(img), BinaryThreshold), nil
	}
	return img, nil
}

// Apply decodes data and runs the color conversion and resize from cfg.
func Apply(data []byte, cfg Config) (image.Image, error) {
	img, err := Decode(bytes.NewReader(data), cfg.Color)
	if err != nil {
		return nil, err
	}
	out := Resize(img, cfg)
	if cfg.Color != ColorNone {
		// imaging always hands back NRGBA; keep gray output single-channel.
		out = ToGray(out)
	}
	return out, nil
}

// ToGray converts img to an 8-bit single-channel image anchored at (0,0).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Threshold returns a two-level copy of src: values above t become 255,
// everything else 0.
func Threshold(src *image.Gray, t uint8) *image.Gray {
	dst := image.NewGray(src.Rect)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		si := src.PixOffset(src.Rect.Min.X, y)
		di := dst.PixOffset(dst.Rect.Min.X, y)
		for x := 0; x < src.Rect.Dx(); x++ {
			if src.Pix[si+x] > t {
				dst.Pix[di+x] = 255
			}
		}
	}
	return dst
}

// AspectSize computes the aspect-preserving output size for an image of
// rows x cols bounded by target columns. scale > 1 means the image shrinks.
func AspectSize(rows, cols, target int) (outRows, outCols int, scale float64) {
	t := float64(target)
	scale = max(float64(rows)/t, float64(cols)/t)
	outRows = max(int(float64(rows)/scale), 1)
	outCols = max(int(float64(cols)/scale), 1)
	return outRows, outCols, scale
}

// Resize applies the fixed-size or aspect-preserving policy from cfg.
func Resize(img image.Image, cfg Config) image.Image {
	b := img.Bounds()
	if !cfg.KeepAspect {
		return imaging.Resize(img, cfg.Columns, cfg.Rows, imaging.Linear)
	}

	rows, cols, scale := AspectSize(b.Dy(), b.Dx(), cfg.Columns)
	filter := imaging.CatmullRom
	if scale > 1 {
		filter = imaging.Box
	}
	return imaging.Resize(img, cols, rows, filter)
}
