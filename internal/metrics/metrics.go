// Package metrics records per-run corpus counters and writes them in the
// Prometheus textfile format picked up by node_exporter's textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used as the "reason" label.
const (
	ReasonDecode = "decode"
	ReasonEncode = "encode"
	ReasonRead   = "read"
)

// Recorder holds the counters of one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	discovered prometheus.Counter
	processed  prometheus.Counter
	skipped    *prometheus.CounterVec
	tags       prometheus.Counter
	written    prometheus.Counter
	duration   prometheus.Gauge
}

// New registers the corpus metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcorpus_files_discovered_total",
			Help: "Files found under the input directory.",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcorpus_images_processed_total",
			Help: "Images transformed, recorded and written.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgcorpus_images_skipped_total",
			Help: "Files skipped, by reason.",
		}, []string{"reason"}),
		tags: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcorpus_metadata_tags_total",
			Help: "Metadata entries written to the document.",
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcorpus_bytes_written_total",
			Help: "Bytes written to the output store, document included.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imgcorpus_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}
	r.registry.MustRegister(r.discovered, r.processed, r.skipped, r.tags, r.written, r.duration)
	return r
}

func (r *Recorder) Discovered(n int) {
	if r != nil {
		r.discovered.Add(float64(n))
	}
}

func (r *Recorder) Processed(tags int) {
	if r != nil {
		r.processed.Inc()
		r.tags.Add(float64(tags))
	}
}

func (r *Recorder) Skipped(reason string) {
	if r != nil {
		r.skipped.WithLabelValues(reason).Inc()
	}
}

func (r *Recorder) Written(n int) {
	if r != nil {
		r.written.Add(float64(n))
	}
}

func (r *Recorder) Finished(d time.Duration) {
	if r != nil {
		r.duration.Set(d.Seconds())
	}
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
