// Package deps reports whether the external binaries saitan shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"saitan/internal/config"
)

// Requirement defines an external dependency saitan relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Requirements lists the binaries used by the capture and timestamp actions.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "wget",
			Command:     cfg.Capture.WgetBinary,
			Description: "local WARC capture (-l)",
		},
		{
			Name:        "ots",
			Command:     cfg.Timestamp.OTSBinary,
			Description: "OpenTimestamps proofs (-o)",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch resolved, err := exec.LookPath(cmd); {
		case cmd == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		default:
			status.Available = true
			status.Path = resolved
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
