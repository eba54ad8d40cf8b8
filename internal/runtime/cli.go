package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// stderrTailLines bounds how much of the child's stderr is kept for error reports.
const stderrTailLines = 20

const signalExitBase = 128

// CLIRuntime runs container commands through the docker or podman executable.
// The child inherits stdin and stdout; stderr is streamed through and its tail is kept.
type CLIRuntime struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	mu   sync.Mutex
	tail *tailBuffer
}

// NewCLIRuntime returns a runtime wired to the process's standard streams.
func NewCLIRuntime() *CLIRuntime {
	return &CLIRuntime{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes args and waits for it to exit.
func (r *CLIRuntime) Run(ctx context.Context, args []string) (int, error) {
	if len(args) == 0 {
		return -1, fmt.Errorf("empty command")
	}

	tail := newTailBuffer(stderrTailLines)
	r.mu.Lock()
	r.tail = tail
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	slog.Info("Running container command", "runtime", args[0], "args", args[1:])

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitStatus(exitErr), nil
	}

	return -1, fmt.Errorf("failed to run %s: %w", args[0], err)
}

// exitStatus follows the shell convention of 128+signal for a child killed by a signal.
func exitStatus(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return signalExitBase + int(status.Signal())
	}
	return exitErr.ExitCode()
}

// StderrTail returns the last lines the most recent child wrote to stderr.
func (r *CLIRuntime) StderrTail() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tail == nil {
		return ""
	}
	return r.tail.String()
}

// tailBuffer keeps the last n complete lines written to it, plus any trailing partial line.
type tailBuffer struct {
	n       int
	lines   []string
	partial bytes.Buffer
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{n: n}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.partial.Write(p)
	for {
		data := t.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		t.push(string(data[:idx]))
		t.partial.Next(idx + 1)
	}
	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	line = strings.TrimRight(line, "\r")
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tailBuffer) String() string {
	lines := t.lines
	if t.partial.Len() > 0 {
		lines = append(append([]string(nil), lines...), t.partial.String())
		if len(lines) > t.n {
			lines = lines[len(lines)-t.n:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
