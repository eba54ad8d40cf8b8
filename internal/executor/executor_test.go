package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
)

// MockContainerRuntime is a mock implementation of the ContainerRuntime interface
type MockContainerRuntime struct {
	*mock.Mock
}

func NewMockContainerRuntime() *MockContainerRuntime {
	return &MockContainerRuntime{Mock: &mock.Mock{}}
}

func (m *MockContainerRuntime) Run(ctx context.Context, args []string) (int, error) {
	ret := m.Called(ctx, args)
	return ret.Int(0), ret.Error(1)
}

// tailingRuntime also reports a stderr tail, like the CLI runtime.
type tailingRuntime struct {
	*MockContainerRuntime
	tail string
}

func (r *tailingRuntime) StderrTail() string { return r.tail }

func newPlan(t *testing.T) compile.MountPlan {
	t.Helper()
	scratch := t.TempDir()
	return compile.MountPlan{
		Scratch:         compile.Mount{HostPath: scratch, ContainerPath: "/tmp"},
		ContainerOutput: "/tmp/report.pdf",
		HostArtifact:    filepath.Join(scratch, "report.pdf"),
	}
}

var args = []string{"podman", "run", "--rm", "redthing1/redpaper_host", "pandoc"}

func TestExecutor_Execute(t *testing.T) {
	pdf := []byte("%PDF-1.7 fake")

	tests := []struct {
		name          string
		setupMock     func(*MockContainerRuntime, compile.MountPlan)
		expectErrType error
		expectCode    int
		expectOutput  bool
	}{
		{
			name: "Successful run copies artifact",
			setupMock: func(m *MockContainerRuntime, plan compile.MountPlan) {
				m.On("Run", mock.Anything, args).Run(func(mock.Arguments) {
					_ = os.WriteFile(plan.HostArtifact, pdf, 0640)
				}).Return(0, nil)
			},
			expectOutput: true,
		},
		{
			name: "Nonzero exit propagates status",
			setupMock: func(m *MockContainerRuntime, plan compile.MountPlan) {
				m.On("Run", mock.Anything, args).Return(2, nil)
			},
			expectErrType: rperrors.ErrExternalProcess,
			expectCode:    2,
		},
		{
			name: "Nonzero exit ignores a partial artifact",
			setupMock: func(m *MockContainerRuntime, plan compile.MountPlan) {
				m.On("Run", mock.Anything, args).Run(func(mock.Arguments) {
					_ = os.WriteFile(plan.HostArtifact, []byte("partial"), 0640)
				}).Return(43, nil)
			},
			expectErrType: rperrors.ErrExternalProcess,
			expectCode:    43,
		},
		{
			name: "Zero exit without artifact",
			setupMock: func(m *MockContainerRuntime, plan compile.MountPlan) {
				m.On("Run", mock.Anything, args).Return(0, nil)
			},
			expectErrType: rperrors.ErrOutputMissing,
			expectCode:    1,
		},
		{
			name: "Runtime cannot start",
			setupMock: func(m *MockContainerRuntime, plan compile.MountPlan) {
				m.On("Run", mock.Anything, args).Return(-1, errors.New("exec: \"podman\": executable file not found in $PATH"))
			},
			expectErrType: rperrors.ErrRuntimeFailed,
			expectCode:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := newPlan(t)
			dest := filepath.Join(t.TempDir(), "report.pdf")

			mockRuntime := NewMockContainerRuntime()
			tt.setupMock(mockRuntime, plan)

			err := NewExecutor(mockRuntime).Execute(context.Background(), args, plan, dest)

			if tt.expectErrType != nil {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !errors.Is(err, tt.expectErrType) {
					t.Errorf("Expected %v, got: %v", tt.expectErrType, err)
				}
				if code := rperrors.ExitCodeFor(err); code != tt.expectCode {
					t.Errorf("ExitCodeFor() = %d, want %d", code, tt.expectCode)
				}
				if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
					t.Error("Destination should not be written on failure")
				}
			} else if err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}

			if tt.expectOutput {
				got, readErr := os.ReadFile(dest)
				if readErr != nil {
					t.Fatalf("Destination not written: %s", readErr)
				}
				if !bytes.Equal(got, pdf) {
					t.Errorf("Destination content = %q, want %q", got, pdf)
				}
			}

			mockRuntime.AssertExpectations(t)
		})
	}
}

func TestExecutor_Execute_IncludesStderrTail(t *testing.T) {
	plan := newPlan(t)
	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("Run", mock.Anything, args).Return(1, nil)

	rt := &tailingRuntime{MockContainerRuntime: mockRuntime, tail: "! LaTeX Error: File `x.sty' not found."}
	err := NewExecutor(rt).Execute(context.Background(), args, plan, filepath.Join(t.TempDir(), "out.pdf"))

	var redpaperErr *rperrors.RedpaperError
	if !errors.As(err, &redpaperErr) {
		t.Fatalf("Expected *RedpaperError, got %T", err)
	}
	if redpaperErr.Cause != rt.tail {
		t.Errorf("Cause = %q, want stderr tail", redpaperErr.Cause)
	}
}

func TestCopyFile_PreservesMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dst := filepath.Join(dir, "dst.pdf")

	if err := os.WriteFile(src, []byte("content"), 0640); err != nil {
		t.Fatal(err)
	}
	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(src, modTime, modTime); err != nil {
		t.Fatal(err)
	}

	// An existing destination is overwritten.
	if err := os.WriteFile(dst, []byte("old content that is longer"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile() failed: %s", err)
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "content" {
		t.Errorf("content = %q", got)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(modTime) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), modTime)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0640 {
		t.Errorf("Mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := copyFile(filepath.Join(dir, "none"), filepath.Join(dir, "dst")); err == nil {
		t.Error("Expected error for missing source")
	}
}
