package runtime

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based runtime tests need a POSIX sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCLIRuntime_Run_ExitStatus(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name     string
		script   string
		wantCode int
	}{
		{"success", "exit 0", 0},
		{"status 2", "exit 2", 2},
		{"status 42", "exit 42", 42},
		{"killed by SIGKILL", "kill -9 $$", 137},
		{"killed by SIGTERM", "kill -15 $$", 143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			r := &CLIRuntime{Stdout: &stdout, Stderr: &stderr}

			code, err := r.Run(context.Background(), []string{"sh", "-c", tt.script})
			if err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}
			if code != tt.wantCode {
				t.Errorf("Run() = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestCLIRuntime_Run_StreamsAndKeepsStderrTail(t *testing.T) {
	requireShell(t)

	var stdout, stderr bytes.Buffer
	r := &CLIRuntime{Stdout: &stdout, Stderr: &stderr}

	code, err := r.Run(context.Background(), []string{"sh", "-c", "echo out; echo one >&2; echo two >&2; exit 3"})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if code != 3 {
		t.Errorf("Run() = %d, want 3", code)
	}
	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "one\ntwo\n" {
		t.Errorf("stderr should still be streamed, got %q", stderr.String())
	}
	if got := r.StderrTail(); got != "one\ntwo" {
		t.Errorf("StderrTail() = %q", got)
	}
}

func TestCLIRuntime_Run_MissingExecutable(t *testing.T) {
	r := &CLIRuntime{}

	code, err := r.Run(context.Background(), []string{"redpaper-definitely-not-installed"})
	if err == nil {
		t.Fatal("Expected an error for a missing executable")
	}
	if code != -1 {
		t.Errorf("Run() = %d, want -1", code)
	}
}

func TestCLIRuntime_Run_EmptyCommand(t *testing.T) {
	r := &CLIRuntime{}
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Error("Expected an error for an empty command")
	}
}

func TestTailBuffer(t *testing.T) {
	tail := newTailBuffer(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(tail, "line %d\n", i)
	}
	fmt.Fprint(tail, "partial")

	got := tail.String()
	want := "line 4\nline 5\npartial"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	split := newTailBuffer(5)
	split.Write([]byte("hel"))
	split.Write([]byte("lo\r\nwor"))
	split.Write([]byte("ld\n"))
	if got := split.String(); got != "hello\nworld" {
		t.Errorf("String() = %q", got)
	}

	if strings.TrimSpace(newTailBuffer(2).String()) != "" {
		t.Error("empty buffer should render empty")
	}
}
