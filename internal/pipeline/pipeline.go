package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/encoder"
	"github.com/AnyUserName/imgcorpus/internal/exifmeta"
	"github.com/AnyUserName/imgcorpus/internal/metrics"
	"github.com/AnyUserName/imgcorpus/internal/storage"
	"github.com/AnyUserName/imgcorpus/internal/transform"
)

// MetadataExtractor returns the embedded tags of an encoded image. It must
// not fail; missing metadata is an empty slice.
type MetadataExtractor interface {
	Extract(data []byte) []corpusdoc.Entry
}

// Config holds all parameters for a corpus run.
type Config struct {
	InputDir    string
	Store       storage.Store
	Transform   transform.Config
	Quality     int // lossy encode quality, 0 = encoder default
	Workers     int // <= 0 means 1
	LocatorBase string

	Extractor MetadataExtractor // nil selects EXIF extraction
	Metrics   *metrics.Recorder // optional
	Log       logrus.FieldLogger
}

// Result summarizes a finished run.
type Result struct {
	Discovered   int
	Processed    int
	Skipped      int
	Tags         int
	BytesWritten int64
	Document     string // location of metadata.xml
	Records      []corpusdoc.Record
	Elapsed      time.Duration
}

// Pipeline orchestrates discovery, transformation and corpus output.
type Pipeline struct {
	cfg       Config
	registry  *encoder.Registry
	extractor MetadataExtractor
	log       logrus.FieldLogger
}

// New creates a configured pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, errors.New("pipeline: no output store")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	ext := cfg.Extractor
	if ext == nil {
		e, err := exifmeta.New()
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		ext = e
	}
	return &Pipeline{
		cfg:       cfg,
		registry:  encoder.NewRegistry(),
		extractor: ext,
		log:       log,
	}, nil
}

// Run processes the whole input tree and writes the corpus. Per-file
// failures are logged and skipped; discovery and storage failures abort.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.log.Debug(p.registry.String())

	// Step 1: Discover files. Nothing is written before this succeeds.
	paths, err := Discover(p.cfg.InputDir, p.log)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	p.cfg.Metrics.Discovered(len(paths))
	p.log.WithField("files", len(paths)).Info("discovered files")

	if err := p.cfg.Store.Prepare(ctx); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Step 2: Process in parallel, collect in discovery order.
	results, window := p.dispatch(ctx, paths)

	doc := corpusdoc.NewBuilder(p.cfg.LocatorBase)
	res := &Result{Discovered: len(paths)}
	next := 1

	for _, ch := range results {
		r := <-ch
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		<-window

		if r.err != nil {
			p.log.WithError(r.err).WithField("path", r.path).Warn("skipping file")
			p.cfg.Metrics.Skipped(r.reason)
			res.Skipped++
			continue
		}

		rec := corpusdoc.Record{
			Index:    next,
			Name:     r.name,
			SourceID: SourceID(r.name),
			Output:   r.output,
			Checksum: r.checksum,
			Metadata: r.entries,
		}
		if err := doc.AddRecord(rec); err != nil {
			return nil, err
		}
		next++

		if err := p.cfg.Store.Put(ctx, r.output, r.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", r.output, err)
		}

		res.Processed++
		res.Tags += len(r.entries)
		res.BytesWritten += int64(len(r.data))
		p.cfg.Metrics.Processed(len(r.entries))
		p.cfg.Metrics.Written(len(r.data))
		p.log.WithFields(logrus.Fields{
			"index":  rec.Index,
			"path":   r.path,
			"output": p.cfg.Store.Location(r.output),
			"size":   fmt.Sprintf("%dx%d", r.width, r.height),
			"tags":   len(r.entries),
		}).Debug("recorded image")
	}

	// Step 3: Serialize the document, empty or not.
	if doc.Len() == 0 {
		p.log.WithField("files", len(paths)).Warn("no image could be decoded; writing an empty document")
	}
	body, err := doc.Serialize()
	if err != nil {
		return nil, err
	}
	if err := p.cfg.Store.Put(ctx, corpusdoc.FileName, body); err != nil {
		return nil, fmt.Errorf("write %s: %w", corpusdoc.FileName, err)
	}
	res.BytesWritten += int64(len(body))
	p.cfg.Metrics.Written(len(body))

	res.Document = p.cfg.Store.Location(corpusdoc.FileName)
	res.Records = doc.Records()
	res.Elapsed = time.Since(start)
	p.cfg.Metrics.Finished(res.Elapsed)
	return res, nil
}

// dispatch starts the worker pool. Each path gets a buffered result channel
// so workers never block on the collector. window bounds how far workers
// may run ahead of the collector; the collector frees one slot per result.
func (p *Pipeline) dispatch(ctx context.Context, paths []string) ([]chan processResult, chan struct{}) {
	results := make([]chan processResult, len(paths))
	for i := range results {
		results[i] = make(chan processResult, 1)
	}
	window := make(chan struct{}, 2*p.cfg.Workers)

	go func() {
		var g errgroup.Group
		g.SetLimit(p.cfg.Workers)
		for i, path := range paths {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				// Unblock the collector for the remaining paths.
				for j := i; j < len(paths); j++ {
					results[j] <- processResult{path: paths[j], err: ctx.Err(), reason: metrics.ReasonRead}
				}
				g.Wait()
				return
			}
			g.Go(func() error {
				results[i] <- p.processFile(ctx, path)
				return nil
			})
		}
		g.Wait()
	}()

	return results, window
}
