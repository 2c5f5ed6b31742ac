// Package metrics exports the outcome of an archival run in the Prometheus
// text exposition format, for pickup by a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"saitan/internal/archive"
)

const namespace = "saitan"

// Recorder holds the gauges for a single run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	actionSuccess  *prometheus.GaugeVec
	actionDuration *prometheus.GaugeVec
	actionsByState *prometheus.GaugeVec
	lastRun        prometheus.Gauge
}

// New creates a Recorder with its metrics registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.actionSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "action_success",
			Help:      "Whether the action succeeded in the last run (1) or not (0).",
		},
		[]string{"action"},
	)
	r.actionDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Wall time spent on the action in the last run.",
		},
		[]string{"action"},
	)
	r.actionsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_actions",
			Help:      "Number of actions in the last run by outcome.",
		},
		[]string{"status"},
	)
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})

	r.registry.MustRegister(r.actionSuccess, r.actionDuration, r.actionsByState, r.lastRun)
	return r
}

// Observe sets every gauge from run. Skipped actions count as unsuccessful
// and have no duration sample.
func (r *Recorder) Observe(run *archive.Run) {
	if run == nil {
		return
	}
	counts := map[archive.Status]int{
		archive.StatusOK:      0,
		archive.StatusFailed:  0,
		archive.StatusSkipped: 0,
	}
	for _, result := range run.Results.Ordered() {
		counts[result.Status]++
		success := 0.0
		if result.Status == archive.StatusOK {
			success = 1
		}
		r.actionSuccess.WithLabelValues(string(result.Action)).Set(success)
		if result.Status != archive.StatusSkipped {
			r.actionDuration.WithLabelValues(string(result.Action)).Set(result.Duration.Seconds())
		}
	}
	for status, count := range counts {
		r.actionsByState.WithLabelValues(string(status)).Set(float64(count))
	}
	if !run.Finished.IsZero() {
		r.lastRun.Set(float64(run.Finished.UnixNano()) / 1e9)
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes the registry to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// WriteRun records run on a fresh Recorder and writes it to path.
func WriteRun(path string, run *archive.Run) error {
	recorder := New()
	recorder.Observe(run)
	return recorder.WriteTextfile(path)
}
