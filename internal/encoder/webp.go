package encoder

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// ErrNoCWebP is returned when a webp output is requested without cwebp.
var ErrNoCWebP = errors.New("cwebp not found in PATH")

// WebPEncoder writes WebP through the cwebp tool, since neither the standard
// library nor x/image can encode it. Sources named *.webp keep their
// extension only when cwebp is installed; otherwise the registry has no webp
// entry and the pipeline writes them as PNG.
type WebPEncoder struct {
	once sync.Once
	path string
}

func (e *WebPEncoder) Format() string { return "webp" }

func (e *WebPEncoder) Available() bool {
	e.once.Do(func() {
		e.path, _ = exec.LookPath("cwebp")
	})
	return e.path != ""
}

// Encode stages img as PNG in a private temp dir and runs cwebp over it.
// quality 100 selects lossless mode.
func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if !e.Available() {
		return nil, ErrNoCWebP
	}

	dir, err := os.MkdirTemp("", "imgcorpus-webp-*")
	if err != nil {
		return nil, fmt.Errorf("webp: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.webp")
	if err := writePNG(src, img); err != nil {
		return nil, fmt.Errorf("webp: stage source: %w", err)
	}

	args := []string{"-quiet", "-metadata", "none"}
	switch {
	case quality == 100:
		args = append(args, "-lossless")
	case quality > 0 && quality < 100:
		args = append(args, "-q", strconv.Itoa(quality))
	default:
		args = append(args, "-q", strconv.Itoa(DefaultJPEGQuality))
	}
	args = append(args, src, "-o", dst)

	if out, err := exec.Command(e.path, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cwebp: %w: %s", err, out)
	}
	return os.ReadFile(dst)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
