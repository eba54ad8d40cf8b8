package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
	"redpaper/pkg/runtime"
)

// stderrReporter is implemented by runtimes that keep the tail of the child's stderr.
type stderrReporter interface {
	StderrTail() string
}

// Executor runs an assembled container command and collects its output artifact.
type Executor struct {
	containerRuntime runtime.ContainerRuntime
}

func NewExecutor(containerRuntime runtime.ContainerRuntime) *Executor {
	return &Executor{containerRuntime: containerRuntime}
}

// Execute runs args to completion, then copies plan.HostArtifact to dest.
// A nonzero exit is reported as ErrExternalProcess carrying the status; a zero
// exit without the artifact is reported as ErrOutputMissing. Nothing is retried.
func (e *Executor) Execute(ctx context.Context, args []string, plan compile.MountPlan, dest string) error {
	code, err := e.containerRuntime.Run(ctx, args)
	if err != nil {
		return rperrors.NewRuntimeError(
			fmt.Sprintf("could not start %s", args[0]),
			err.Error(),
			"Check that the container runtime is installed and on PATH, or run 'redpaper doctor'",
			err,
		)
	}

	if code != 0 {
		var tail string
		if reporter, ok := e.containerRuntime.(stderrReporter); ok {
			tail = reporter.StderrTail()
		}
		slog.Error("Container exited with nonzero status", "exitCode", code)
		return rperrors.NewExternalProcessError(code, tail)
	}

	if _, err := os.Stat(plan.HostArtifact); err != nil {
		return rperrors.NewOutputMissingError(
			"output file was not created",
			fmt.Sprintf("the converter exited 0 but %s is missing", plan.ContainerOutput),
			"Check the converter arguments; some flag combinations produce no PDF",
			fmt.Errorf("output file was not created: %w", err),
		)
	}

	if err := copyFile(plan.HostArtifact, dest); err != nil {
		return rperrors.NewFileSystemError(
			fmt.Sprintf("could not write %s", dest),
			err.Error(),
			"Check permissions on the --output location",
			err,
		)
	}

	slog.Info("Artifact copied", "from", plan.HostArtifact, "to", dest)
	return nil
}
