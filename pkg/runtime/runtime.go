// Located in pkg/runtime/runtime.go
package runtime

import (
	"context"
)

// ContainerRuntime runs a fully assembled container command line.
// args[0] is the runtime executable (docker or podman).
type ContainerRuntime interface {
	// Run blocks until the process exits and returns its exit status.
	// A non-nil error means the process could not be started or waited on.
	Run(ctx context.Context, args []string) (int, error)
}

// Prober reports whether an executable is available on the host.
type Prober func(name string) bool
