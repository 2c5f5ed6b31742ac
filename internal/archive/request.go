package archive

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidURL is returned when the target is not an archivable http(s) URL.
var ErrInvalidURL = errors.New("url is not valid")

// Options selects which actions a run performs. Timestamp, Checksum and
// Upload only take effect together with LocalCapture.
type Options struct {
	Snapshot     bool
	Secondary    bool
	LocalCapture bool
	Timestamp    bool
	Checksum     bool
	Upload       bool
}

// Requested reports whether the action was selected, regardless of whether
// its prerequisites are met.
func (o Options) Requested(action Action) bool {
	switch action {
	case ActionSnapshot:
		return o.Snapshot
	case ActionSecondary:
		return o.Secondary
	case ActionLocalCapture:
		return o.LocalCapture
	case ActionTimestamp:
		return o.Timestamp
	case ActionChecksum:
		return o.Checksum
	case ActionUpload:
		return o.Upload
	default:
		return false
	}
}

// Any reports whether at least one action is selected.
func (o Options) Any() bool {
	for _, action := range Order {
		if o.Requested(action) {
			return true
		}
	}
	return false
}

// Ignored lists post-capture actions that were selected without LocalCapture.
func (o Options) Ignored() []Action {
	if o.LocalCapture {
		return nil
	}
	var ignored []Action
	for _, action := range Order {
		if action.PostCapture() && o.Requested(action) {
			ignored = append(ignored, action)
		}
	}
	return ignored
}

// Request is the immutable input to one run.
type Request struct {
	URL     string
	Options Options
	// ID correlates log lines and history rows for the run.
	ID string
}

// NewRequest builds a request with a fresh run ID.
func NewRequest(rawURL string, opts Options) Request {
	return Request{URL: rawURL, Options: opts, ID: uuid.NewString()}
}
