//go:build ignore

// gen_fixtures creates a small source tree for an imgcorpus smoke run.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	must(os.MkdirAll(filepath.Join(dir, "plates"), 0o755))

	// Photo with a five-digit id prefix and camera EXIF.
	photo := encodeJPEG(gradient(400, 225))
	tiff, err := cameraExif("Canon", "EOS 5D")
	must(err)
	must(os.WriteFile(filepath.Join(dir, "12345_field.jpg"), withExif(photo, tiff), 0o644))

	// Nested scans without ids.
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("plate-%d.png", i)
		writePNG(filepath.Join(dir, "plates", name), solidWithBorder(200, 150, uint8(i*60)))
	}

	// Tall image for --aspect runs.
	writePNG(filepath.Join(dir, "67890_tall.png"), gradient(90, 300))

	// Not an image; the build skips it.
	must(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("field notes\n"), 0o644))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 6 fixtures in %s\n", dir)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// cameraExif encodes an IFD0 holding Make and Model.
func cameraExif(maker, model string) ([]byte, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, err
	}
	ib := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := ib.AddStandardWithName("Make", maker); err != nil {
		return nil, err
	}
	if err := ib.AddStandardWithName("Model", model); err != nil {
		return nil, err
	}
	return exif.NewIfdByteEncoder().EncodeToExif(ib)
}

// withExif splices an APP1 Exif segment after the SOI marker.
func withExif(jpg, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xff, 0xe1})
	must(binary.Write(&out, binary.BigEndian, uint16(len(payload)+2)))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(path string, img image.Image) {
	f, err := os.Create(path)
	must(err)
	defer f.Close()
	must(png.Encode(f, img))
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	must(jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}
