package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork      = errors.New("network error")
	ErrExternalTool = errors.New("external tool error")
	ErrTimeout      = errors.New("timeout")
	ErrValidation   = errors.New("validation error")
	ErrIO           = errors.New("io error")
	ErrUnavailable  = errors.New("unavailable")
)

// ErrorKind classifies an action failure for logs and the history ledger.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindNetwork     ErrorKind = "network"
	KindProcess     ErrorKind = "process"
	KindTimeout     ErrorKind = "timeout"
	KindValidation  ErrorKind = "validation"
	KindIO          ErrorKind = "io"
	KindUnavailable ErrorKind = "unavailable"
	KindUnknown     ErrorKind = "unknown"
)

// Wrap builds an error message that includes action context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, action, operation, message string, err error) error {
	detail := buildDetail(action, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an action error to its ErrorKind. Deadline and cancellation
// errors win over the marker so a timed-out HTTP call reports as a timeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if isTimeout(err) {
		return KindTimeout
	}
	switch {
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrExternalTool):
		return KindProcess
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

func buildDetail(action, operation, message string) string {
	parts := make([]string, 0, 3)
	if action = strings.TrimSpace(action); action != "" {
		parts = append(parts, action)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
