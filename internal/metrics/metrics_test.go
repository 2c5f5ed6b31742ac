package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saitan/internal/archive"
)

func sampleRun() *archive.Run {
	finished := time.Unix(1_700_000_000, 0)
	return &archive.Run{
		ID:       "run-1",
		URL:      "https://example.com",
		Started:  finished.Add(-10 * time.Second),
		Finished: finished,
		Results: archive.Results{
			archive.ActionSnapshot: {
				Action:   archive.ActionSnapshot,
				Status:   archive.StatusOK,
				Value:    "https://web.archive.org/web/1/https://example.com",
				Duration: 2 * time.Second,
			},
			archive.ActionLocalCapture: {
				Action:   archive.ActionLocalCapture,
				Status:   archive.StatusFailed,
				Err:      errors.New("exited with status 8"),
				Duration: 500 * time.Millisecond,
			},
			archive.ActionChecksum: {
				Action: archive.ActionChecksum,
				Status: archive.StatusSkipped,
			},
		},
	}
}

func TestObserveSetsGauges(t *testing.T) {
	r := New()
	r.Observe(sampleRun())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionSuccess.WithLabelValues("snapshot")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.actionSuccess.WithLabelValues("local-capture")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.actionSuccess.WithLabelValues("checksum")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.actionDuration.WithLabelValues("snapshot")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.actionDuration.WithLabelValues("local-capture")))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionsByState.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionsByState.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionsByState.WithLabelValues("skipped")))
	assert.Equal(t, 1.7e9, testutil.ToFloat64(r.lastRun))
}

func TestObserveNilRun(t *testing.T) {
	r := New()
	r.Observe(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(r.actionSuccess))
}

func TestWriteRunProducesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "saitan.prom")
	require.NoError(t, WriteRun(path, sampleRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `saitan_action_success{action="snapshot"} 1`)
	assert.Contains(t, text, `saitan_action_success{action="local-capture"} 0`)
	assert.Contains(t, text, "# TYPE saitan_last_run_timestamp_seconds gauge")
	assert.False(t, strings.Contains(text, `saitan_action_duration_seconds{action="checksum"}`),
		"skipped actions have no duration sample")
}
