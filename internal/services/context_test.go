package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"saitan/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithAction(ctx, "snapshot")

	id, ok := services.RunIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "run-123", id)

	action, ok := services.ActionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", action)
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithAction(ctx, "")
	ctx = services.WithRunID(ctx, "")

	_, ok := services.ActionFromContext(ctx)
	assert.False(t, ok)
	_, ok = services.RunIDFromContext(ctx)
	assert.False(t, ok)
}
