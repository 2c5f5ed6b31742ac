package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// CommandExecutor runs binaries with os/exec, streaming stdout and stderr
// line by line to onOutput.
type CommandExecutor struct{}

// Run starts binary and waits for it. When ctx ends first the process is
// killed and the context error is returned so callers classify it as a timeout.
func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	tail := newTailBuffer(5)
	var mu sync.Mutex
	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		tail.add(line)
		if onOutput != nil {
			onOutput(line)
		}
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s interrupted: %w", binary, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if detail := tail.String(); detail != "" {
				return fmt.Errorf("%s exited with status %d: %s: %w", binary, exitErr.ExitCode(), detail, err)
			}
			return fmt.Errorf("%s exited with status %d: %w", binary, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("wait %s: %w", binary, err)
	}
	return nil
}

// tailBuffer keeps the last few output lines for error messages.
type tailBuffer struct {
	lines []string
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailBuffer) String() string {
	return strings.Join(t.lines, " | ")
}
