package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.Discovered(5)
	r.Processed(3)
	r.Processed(0)
	r.Skipped(ReasonDecode)
	r.Skipped(ReasonDecode)
	r.Skipped(ReasonEncode)
	r.Written(1024)

	assert.Equal(t, 5.0, testutil.ToFloat64(r.discovered))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.processed))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.tags))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.skipped.WithLabelValues(ReasonDecode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues(ReasonEncode)))
	assert.Equal(t, 1024.0, testutil.ToFloat64(r.written))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Discovered(1)
		r.Processed(1)
		r.Skipped(ReasonRead)
		r.Written(1)
		r.Finished(time.Second)
	})
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Discovered(2)
	r.Finished(1500 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "imgcorpus.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "imgcorpus_files_discovered_total 2"), text)
	assert.True(t, strings.Contains(text, "imgcorpus_run_duration_seconds 1.5"), text)
}
