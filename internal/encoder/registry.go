package encoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Registry maps output file extensions to available encoders.
type Registry struct {
	encoders map[string]Encoder // keyed by Format()
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	// Register all encoders. Only available ones will be used.
	all := []Encoder{
		NewImaging(imaging.JPEG),
		NewImaging(imaging.PNG),
		NewImaging(imaging.GIF),
		NewImaging(imaging.TIFF),
		NewImaging(imaging.BMP),
		&WebPEncoder{},
	}

	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}

	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// ForFile picks the encoder matching name's extension.
func (r *Registry) ForFile(name string) (Encoder, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return nil, fmt.Errorf("%s: no file extension", name)
	}

	format := ext
	if f, err := imaging.FormatFromExtension(ext); err == nil {
		format = formatName(f)
	}

	enc := r.Get(format)
	if enc == nil {
		return nil, fmt.Errorf("%s: no encoder for .%s", name, ext)
	}
	return enc, nil
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	var result []string
	// Maintain a stable order.
	for _, f := range []string{"jpeg", "png", "tiff", "bmp", "gif", "webp"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
