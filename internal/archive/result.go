package archive

import (
	"time"

	"saitan/internal/services"
)

// Status is the outcome of one action.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

const (
	// FailureMarker is displayed for any failed action.
	FailureMarker = "FAILED"
	// SkippedMarker is displayed for post-capture actions after a failed capture.
	SkippedMarker = "skipped: local capture failed"
)

// Result records the outcome of one action. Kind and Err carry diagnostics
// for logs and history; the report only shows Display.
type Result struct {
	Action   Action
	Status   Status
	Value    string
	Kind     services.ErrorKind
	Err      error
	Duration time.Duration
}

// Display returns the report value: the location, path or digest on
// success, otherwise a fixed marker.
func (r Result) Display() string {
	switch r.Status {
	case StatusOK:
		return r.Value
	case StatusSkipped:
		return SkippedMarker
	default:
		return FailureMarker
	}
}

// Results maps each action that ran to its outcome.
type Results map[Action]Result

// Ordered returns the present results in report order.
func (r Results) Ordered() []Result {
	ordered := make([]Result, 0, len(r))
	for _, action := range Order {
		if result, ok := r[action]; ok {
			ordered = append(ordered, result)
		}
	}
	return ordered
}

// Run is the record of one orchestrated archival run.
type Run struct {
	ID       string
	URL      string
	Started  time.Time
	Finished time.Time
	Results  Results
}
