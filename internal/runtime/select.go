package runtime

import (
	"log/slog"
	"os/exec"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
	"redpaper/pkg/runtime"
)

// autoPreference is the probe order for auto-selection. Podman wins when both are installed.
var autoPreference = []compile.RuntimeChoice{compile.RuntimePodman, compile.RuntimeDocker}

// LookPath reports whether name resolves to an executable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Select returns the runtime executable to use for choice.
// A concrete choice is returned unchanged; its existence is only discovered when it is run.
func Select(choice compile.RuntimeChoice, probe runtime.Prober) (string, error) {
	if choice != compile.RuntimeAuto {
		return string(choice), nil
	}

	if probe == nil {
		probe = LookPath
	}

	for _, candidate := range autoPreference {
		if probe(string(candidate)) {
			slog.Info("Selected container runtime", "runtime", candidate)
			return string(candidate), nil
		}
	}

	return "", rperrors.NewNoRuntimeError(
		"neither docker nor podman found",
		"no podman or docker executable on PATH",
		"Install podman or docker, or pass --container-tool with the runtime to use",
		nil,
	)
}

// Available returns the supported runtimes that probe reports as installed, in preference order.
func Available(probe runtime.Prober) []string {
	if probe == nil {
		probe = LookPath
	}

	var found []string
	for _, candidate := range autoPreference {
		if probe(string(candidate)) {
			found = append(found, string(candidate))
		}
	}
	return found
}
