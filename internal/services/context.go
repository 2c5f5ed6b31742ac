package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	actionKey contextKey = "action"
)

// WithRunID annotates context with the archival run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the archival run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAction annotates context with the action currently executing.
func WithAction(ctx context.Context, action string) context.Context {
	if action == "" {
		return ctx
	}
	return context.WithValue(ctx, actionKey, action)
}

// ActionFromContext returns the action name if present.
func ActionFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(actionKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
