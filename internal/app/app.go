package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"redpaper/internal/builder"
	"redpaper/internal/config"
	rperrors "redpaper/internal/errors"
	"redpaper/internal/executor"
	"redpaper/internal/planner"
	"redpaper/internal/resolver"
	containers "redpaper/internal/runtime"
	"redpaper/internal/ui"
	"redpaper/pkg/compile"
	"redpaper/pkg/runtime"
)

const scratchPattern = "redpaper-*"

// Deps are the host collaborators of Compile. Nil fields fall back to the real host.
type Deps struct {
	Runtime runtime.ContainerRuntime
	Probe   runtime.Prober
	Console *ui.Console
}

func (d Deps) withDefaults() Deps {
	f := NewFactory()
	if d.Runtime == nil {
		d.Runtime = f.ContainerRuntime()
	}
	if d.Probe == nil {
		d.Probe = f.Prober()
	}
	if d.Console == nil {
		d.Console = ui.NewConsole()
	}
	return d
}

// Compile turns req.InputPath into a PDF at req.OutputPath by running the converter
// image under the selected container runtime. The scratch directory that receives
// the converter's output exists only for the duration of the call.
func Compile(ctx context.Context, req compile.Request, deps Deps) error {
	deps = deps.withDefaults()
	runID := uuid.New().String()
	logger := slog.With("runId", runID)

	logger.Info("Starting compile", "input", req.InputPath, "output", req.OutputPath, "containerTool", req.ContainerTool, "dryRun", req.DryRun)

	if err := config.ValidateRequest(req); err != nil {
		return err
	}

	resolved, err := resolver.Resolve(req)
	if err != nil {
		return err
	}

	tool, err := containers.Select(resolved.ContainerTool, deps.Probe)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", scratchPattern)
	if err != nil {
		return rperrors.NewFileSystemError(
			"failed to create scratch directory",
			err.Error(),
			"Check that the system temp directory is writable",
			fmt.Errorf("failed to create scratch directory: %w", err),
		)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("Failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	plan := planner.Plan(resolved, scratch)
	converter := builder.ConverterArgs(resolved, plan)
	args := builder.ContainerArgs(tool, resolved.Image, plan, converter)

	logger.Info("Container command assembled", "runtime", tool, "scratch", scratch, "args", args)
	deps.Console.PrintRunning(args)

	if resolved.DryRun {
		logger.Info("Dry run, container not started")
		return nil
	}

	if err := executor.NewExecutor(deps.Runtime).Execute(ctx, args, plan, resolved.OutputPath); err != nil {
		logger.Error("Compile failed", "error", err)
		return err
	}

	deps.Console.PrintSuccess(fmt.Sprintf("pdf written to %s", resolved.OutputPath))
	logger.Info("Compile completed", "output", resolved.OutputPath)
	return nil
}

// Doctor inspects the host: runtimes on PATH, engine reachability and whether
// image is present locally. The report is always returned; the error is
// ErrNoRuntimeFound when neither runtime is installed.
func Doctor(ctx context.Context, image string, probe runtime.Prober, newEngine EngineFactory) (*DoctorReport, error) {
	if probe == nil {
		probe = containers.LookPath
	}

	report := &DoctorReport{Image: ImageStatus{Ref: image}}
	available := containers.Available(probe)
	for _, name := range []compile.RuntimeChoice{compile.RuntimePodman, compile.RuntimeDocker} {
		report.Runtimes = append(report.Runtimes, RuntimeStatus{Name: string(name), Found: contains(available, string(name))})
	}
	if len(available) > 0 {
		report.Selected = available[0]
	}

	engine, err := newEngine()
	if err != nil {
		report.Engine.Error = err.Error()
	} else {
		defer engine.Close()

		version, err := engine.Ping(ctx)
		if err != nil {
			report.Engine.Error = err.Error()
		} else {
			report.Engine.Reachable = true
			report.Engine.APIVersion = version

			present, err := engine.ImagePresent(ctx, image)
			if err != nil {
				report.Image.Error = err.Error()
			}
			report.Image.Present = present
		}
	}

	slog.Info("Doctor finished", "selected", report.Selected, "engineReachable", report.Engine.Reachable, "imagePresent", report.Image.Present)

	if report.Selected == "" {
		return report, rperrors.NewNoRuntimeError(
			"neither docker nor podman found",
			"no podman or docker executable on PATH",
			"Install podman or docker",
			nil,
		)
	}
	return report, nil
}

// Pull fetches image through the engine API so the first compile does not stall on it.
func Pull(ctx context.Context, image string, newEngine EngineFactory) error {
	engine, err := newEngine()
	if err != nil {
		return rperrors.NewRuntimeError(
			"failed to connect to the container engine",
			err.Error(),
			"Set DOCKER_HOST, or for podman enable the API socket (podman system service)",
			err,
		)
	}
	defer engine.Close()

	if err := engine.PullImage(ctx, image); err != nil {
		return rperrors.NewRuntimeError(
			fmt.Sprintf("failed to pull %s", image),
			err.Error(),
			"Check the image reference and registry access",
			err,
		)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
