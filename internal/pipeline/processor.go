package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/hasher"
	"github.com/AnyUserName/imgcorpus/internal/metrics"
	"github.com/AnyUserName/imgcorpus/internal/transform"
)

// FallbackType is the output extension for decodable sources whose own
// extension has no encoder.
const FallbackType = "png"

// processResult holds everything the collector needs to record and write
// one source file.
type processResult struct {
	path     string
	name     string // source base name
	output   string // output file name
	data     []byte // encoded output
	checksum string
	entries  []corpusdoc.Entry
	width    int
	height   int

	err    error
	reason string // metrics skip reason when err != nil
}

// processFile reads, transforms, extracts and encodes one file. It never
// touches the output store or the document.
func (p *Pipeline) processFile(ctx context.Context, path string) processResult {
	result := processResult{path: path, name: filepath.Base(path)}

	if err := ctx.Err(); err != nil {
		result.err, result.reason = err, metrics.ReasonRead
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.err = fmt.Errorf("read %s: %w", path, err)
		result.reason = metrics.ReasonRead
		return result
	}

	img, err := transform.Apply(data, p.cfg.Transform)
	if err != nil {
		result.err = fmt.Errorf("%s: %w", path, err)
		result.reason = metrics.ReasonDecode
		return result
	}
	b := img.Bounds()
	result.width, result.height = b.Dx(), b.Dy()

	// Metadata comes from the untouched source bytes.
	result.entries = p.extractor.Extract(data)

	result.output = OutputName(result.name, p.cfg.Transform.Type)
	enc, err := p.registry.ForFile(result.output)
	if err != nil && p.cfg.Transform.Type == "" {
		// Decodable but not writable under its own extension (webp without
		// cwebp, no extension at all): keep the image as PNG.
		result.output = OutputName(result.name, FallbackType)
		enc, err = p.registry.ForFile(result.output)
	}
	if err != nil {
		result.err = fmt.Errorf("%s: %w", path, err)
		result.reason = metrics.ReasonEncode
		return result
	}
	result.data, err = enc.Encode(img, p.cfg.Quality)
	if err != nil {
		result.err = fmt.Errorf("encode %s as %s: %w", path, enc.Format(), err)
		result.reason = metrics.ReasonEncode
		return result
	}
	result.checksum = hasher.Checksum(result.data)

	return result
}

// SourceID returns the five-digit numeric prefix of name, or name itself
// when it does not start with five ASCII digits.
func SourceID(name string) string {
	if len(name) < 5 {
		return name
	}
	for i := 0; i < 5; i++ {
		if name[i] < '0' || name[i] > '9' {
			return name
		}
	}
	return name[:5]
}

// OutputName swaps the extension of name for typ. An empty typ keeps name.
func OutputName(name, typ string) string {
	if typ == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + typ
}
