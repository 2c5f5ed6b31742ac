// Package report renders the end-of-run summary: one right-aligned
// name/value line per action that ran, framed by rules.
package report

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"saitan/internal/archive"
)

const (
	ruleWidth   = 80
	columnWidth = 16
)

type settings struct {
	color bool
}

// Option configures Build.
type Option func(*settings)

// WithColor highlights failed and skipped entries with ANSI colours.
// Column alignment ignores the escape sequences.
func WithColor(enabled bool) Option {
	return func(s *settings) {
		s.color = enabled
	}
}

// Build renders results in the fixed action order. Actions that did not run
// are omitted; an empty result set still prints both rules.
func Build(results archive.Results, opts ...Option) string {
	cfg := settings{}
	for _, opt := range opts {
		opt(&cfg)
	}

	rule := strings.Repeat("=", ruleWidth)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	for _, result := range results.Ordered() {
		b.WriteString(":: ")
		b.WriteString(text.AlignRight.Apply(result.Action.Label(), columnWidth))
		b.WriteString(" :  ")
		b.WriteString(text.AlignRight.Apply(cfg.paint(result), columnWidth))
		b.WriteString("\n")
	}
	b.WriteString(rule)
	b.WriteString("\n")
	return b.String()
}

func (s settings) paint(result archive.Result) string {
	value := result.Display()
	if !s.color {
		return value
	}
	switch result.Status {
	case archive.StatusFailed:
		return text.Colors{text.FgRed, text.Bold}.Sprint(value)
	case archive.StatusSkipped:
		return text.FgYellow.Sprint(value)
	default:
		return value
	}
}
