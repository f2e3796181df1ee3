package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/hasher"
	"github.com/AnyUserName/imgcorpus/internal/metrics"
	"github.com/AnyUserName/imgcorpus/internal/storage"
	"github.com/AnyUserName/imgcorpus/internal/transform"
)

// stubExtractor returns one entry naming the input length.
type stubExtractor struct{ calls atomic.Int32 }

func (s *stubExtractor) Extract(data []byte) []corpusdoc.Entry {
	s.calls.Add(1)
	return []corpusdoc.Entry{{Tag: "Length", Value: strings.Repeat("x", len(data)%7)}}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func newPipeline(t *testing.T, in, out string, mutate func(*Config)) *Pipeline {
	t.Helper()
	log, _ := quietLogger()
	cfg := Config{
		InputDir:  in,
		Store:     storage.NewLocal(out),
		Transform: transform.Config{Rows: 8, Columns: 12},
		Workers:   1,
		Extractor: &stubExtractor{},
		Log:       log,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestDiscover_Completeness(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"a":   []byte("1"),
		"b/c": []byte("2"),
		"b/d": []byte("3"),
	})

	log, _ := quietLogger()
	files, err := Discover(root, log)
	require.NoError(t, err)

	abs, _ := filepath.Abs(root)
	assert.Equal(t, []string{
		filepath.Join(abs, "a"),
		filepath.Join(abs, "b", "c"),
		filepath.Join(abs, "b", "d"),
	}, files)
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	log, _ := quietLogger()
	files, err := Discover(t.TempDir(), log)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_MissingRoot(t *testing.T) {
	log, _ := quietLogger()
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), log)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Discover(file, log)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestDiscover_SymlinkCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"sub/img": []byte("x")})
	if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	log, _ := quietLogger()
	files, err := Discover(root, log)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "img", filepath.Base(files[0]))
}

func TestDiscover_RepeatedDirectoryLinks(t *testing.T) {
	root := t.TempDir()
	shared := t.TempDir()
	writeTree(t, shared, map[string][]byte{"img": []byte("x")})
	for _, name := range []string{"first", "second"} {
		if err := os.Symlink(shared, filepath.Join(root, name)); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
	}

	log, _ := quietLogger()
	files, err := Discover(root, log)
	require.NoError(t, err)

	abs, _ := filepath.Abs(root)
	assert.Equal(t, []string{
		filepath.Join(abs, "first", "img"),
		filepath.Join(abs, "second", "img"),
	}, files)
}

func TestDiscover_FollowsFileLinks(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeTree(t, other, map[string][]byte{"target": []byte("x")})
	if err := os.Symlink(filepath.Join(other, "target"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	log, _ := quietLogger()
	files, err := Discover(root, log)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "link", filepath.Base(files[0]))
}

func TestSourceID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"12345_photo.jpg", "12345"},
		{"1234567.jpg", "12345"},
		{"abc.jpg", "abc.jpg"},
		{"1234.jpg", "1234.jpg"},
		{"12a45.jpg", "12a45.jpg"},
		{"1234", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceID(tt.in), tt.in)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "photo.jpg", OutputName("photo.jpg", ""))
	assert.Equal(t, "photo.png", OutputName("photo.jpg", "png"))
	assert.Equal(t, "a.b.tif", OutputName("a.b.jpg", "tif"))
	assert.Equal(t, "noext.bmp", OutputName("noext", "bmp"))
}

func TestRun_SkipsUndecodableFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{
		"01_first.png":  pngBytes(t, 20, 10),
		"02_broken.png": []byte("not an image"),
		"03_third.png":  pngBytes(t, 5, 5),
	})

	rec := metrics.New()
	p := newPipeline(t, in, out, func(c *Config) { c.Metrics = rec })
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Discovered)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Records[0].Index)
	assert.Equal(t, "01_first.png", res.Records[0].Name)
	assert.Equal(t, 2, res.Records[1].Index)
	assert.Equal(t, "03_third.png", res.Records[1].Name)

	assert.NoFileExists(t, filepath.Join(out, "02_broken.png"))

	for _, r := range res.Records {
		data, err := os.ReadFile(filepath.Join(out, r.Output))
		require.NoError(t, err)
		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 12, img.Bounds().Dx())
		assert.Equal(t, 8, img.Bounds().Dy())
		assert.Equal(t, hasher.Checksum(data), r.Checksum)
	}

	doc, err := corpusdoc.ReadFile(filepath.Join(out, corpusdoc.FileName))
	require.NoError(t, err)
	assert.Equal(t, res.Records, doc.Records)
}

func TestRun_UnwritableExtensionFallsBackToPNG(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{
		"scan.dat": pngBytes(t, 6, 6),
		"noext":    pngBytes(t, 6, 6),
	})

	res, err := newPipeline(t, in, out, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "noext.png", res.Records[0].Output)
	assert.Equal(t, "scan.png", res.Records[1].Output)
	assert.Equal(t, "scan.dat", res.Records[1].Name)
	assert.FileExists(t, filepath.Join(out, "scan.png"))
}

func TestRun_SequenceIsContiguous(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := map[string][]byte{}
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		if i%2 == 1 {
			files[name+".png"] = []byte("junk")
			continue
		}
		files[name+".png"] = pngBytes(t, 4+i, 4)
	}
	writeTree(t, in, files)

	res, err := newPipeline(t, in, out, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	for i, r := range res.Records {
		assert.Equal(t, i+1, r.Index)
	}
	assert.Equal(t, []string{"a.png", "c.png", "e.png"},
		[]string{res.Records[0].Name, res.Records[1].Name, res.Records[2].Name})
}

func TestRun_EmptyCorpusWritesEmptyDocument(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{"notes.txt": []byte("hello")})

	log, hook := quietLogger()
	p := newPipeline(t, in, out, func(c *Config) { c.Log = log })
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	body, err := os.ReadFile(filepath.Join(out, corpusdoc.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<root></root>")

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "empty document") {
			warned = true
		}
	}
	assert.True(t, warned, "expected an empty-corpus warning")
}

func TestRun_MissingInputWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	p := newPipeline(t, filepath.Join(t.TempDir(), "missing"), out, nil)

	_, err := p.Run(context.Background())
	assert.True(t, errors.Is(err, ErrDirectoryNotFound), "%v", err)
	assert.NoDirExists(t, out)
}

func TestRun_WorkersProduceSameDocument(t *testing.T) {
	in := t.TempDir()
	files := map[string][]byte{}
	for i := 0; i < 17; i++ {
		name := filepath.Join("d"+string(rune('a'+i%3)), "img"+string(rune('a'+i))+".png")
		if i%5 == 4 {
			files[name] = []byte("broken")
			continue
		}
		files[name] = pngBytes(t, 6+i, 3+i)
	}
	writeTree(t, in, files)

	run := func(workers int) []byte {
		out := t.TempDir()
		p := newPipeline(t, in, out, func(c *Config) { c.Workers = workers })
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		body, err := os.ReadFile(filepath.Join(out, corpusdoc.FileName))
		require.NoError(t, err)
		return body
	}

	serial := run(1)
	assert.Equal(t, string(serial), string(run(4)))
	assert.Equal(t, string(serial), string(run(16)))
}

func TestRun_TypeOverrideAndGray(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{"12345_x.png": pngBytes(t, 30, 30)})

	p := newPipeline(t, in, out, func(c *Config) {
		c.Transform = transform.Config{Rows: 10, Columns: 10, Color: transform.ColorGray, Type: "jpg"}
	})
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "12345_x.jpg", r.Output)
	assert.Equal(t, "12345", r.SourceID)

	data, err := os.ReadFile(filepath.Join(out, "12345_x.jpg"))
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	c := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestRun_MetadataComesFromSource(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{"a.png": pngBytes(t, 4, 4), "b.png": pngBytes(t, 5, 5)})

	ext := &stubExtractor{}
	p := newPipeline(t, in, out, func(c *Config) { c.Extractor = ext })
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, ext.calls.Load())
	assert.Equal(t, 2, res.Tags)
	for _, r := range res.Records {
		require.Len(t, r.Metadata, 1)
		assert.Equal(t, "Length", r.Metadata[0].Tag)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTree(t, in, map[string][]byte{"a.png": pngBytes(t, 4, 4)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline(t, in, out, func(c *Config) { c.Workers = 2 }).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(out, corpusdoc.FileName))
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{InputDir: "."})
	assert.Error(t, err)
}
