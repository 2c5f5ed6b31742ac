package archive

// Action names one archival step.
type Action string

const (
	ActionSnapshot     Action = "snapshot"
	ActionSecondary    Action = "secondary"
	ActionLocalCapture Action = "local-capture"
	ActionTimestamp    Action = "timestamp"
	ActionChecksum     Action = "checksum"
	ActionUpload       Action = "upload"
)

// Order is the fixed order used for execution and reporting.
var Order = []Action{
	ActionSnapshot,
	ActionSecondary,
	ActionLocalCapture,
	ActionTimestamp,
	ActionChecksum,
	ActionUpload,
}

var labels = map[Action]string{
	ActionSnapshot:     "waybackmachine",
	ActionSecondary:    "archiveis",
	ActionLocalCapture: "localcopy",
	ActionTimestamp:    "opentimestamps",
	ActionChecksum:     "sha256",
	ActionUpload:       "upload",
}

// Label returns the name shown for the action in the report.
func (a Action) Label() string {
	if label, ok := labels[a]; ok {
		return label
	}
	return string(a)
}

// PostCapture reports whether the action consumes the local capture.
func (a Action) PostCapture() bool {
	switch a {
	case ActionTimestamp, ActionChecksum, ActionUpload:
		return true
	default:
		return false
	}
}
