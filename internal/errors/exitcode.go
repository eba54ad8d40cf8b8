package errors

import "errors"

const (
	ExitSuccess = 0
	ExitFailure = 1

	// signalExitBase + N is reported for a child terminated by signal N.
	signalExitBase = 128
)

// ExitCodeFor returns the process exit code for err.
// A failed container propagates its own status; every other failure exits 1.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var redpaperErr *RedpaperError
	if errors.As(err, &redpaperErr) && redpaperErr.Type == ErrExternalProcess && redpaperErr.ExitCode > 0 {
		return redpaperErr.ExitCode
	}

	return ExitFailure
}
