package services_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saitan/internal/services"
)

func requireShell(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return path
}

func TestCommandExecutorStreamsOutput(t *testing.T) {
	sh := requireShell(t)
	var lines []string
	err := services.CommandExecutor{}.Run(context.Background(), sh, []string{"-c", "echo one; echo two 1>&2"}, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, lines)
}

func TestCommandExecutorReportsExitStatus(t *testing.T) {
	sh := requireShell(t)
	err := services.CommandExecutor{}.Run(context.Background(), sh, []string{"-c", "echo failing >&2; exit 8"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 8")
	assert.Contains(t, err.Error(), "failing")
}

func TestCommandExecutorMissingBinary(t *testing.T) {
	err := services.CommandExecutor{}.Run(context.Background(), "saitan-definitely-missing-binary", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
}

func TestCommandExecutorTimeout(t *testing.T) {
	sh := requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := services.CommandExecutor{}.Run(ctx, sh, []string{"-c", "exec sleep 5"}, nil)
	require.Error(t, err)
	assert.Equal(t, services.KindTimeout, services.KindOf(err))
}
