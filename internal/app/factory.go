package app

import (
	containers "redpaper/internal/runtime"
	"redpaper/pkg/runtime"
)

// Factory creates the host-backed collaborators used by the commands. Tests
// bypass it and pass fakes through Deps and EngineFactory instead.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// ContainerRuntime returns a runtime that executes the container command line as a child process.
func (f *Factory) ContainerRuntime() runtime.ContainerRuntime {
	return containers.NewCLIRuntime()
}

// Prober returns the PATH-based runtime probe.
func (f *Factory) Prober() runtime.Prober {
	return containers.LookPath
}

// Engine connects to the Docker-compatible engine named by the environment.
func (f *Factory) Engine() (Engine, error) {
	client, err := containers.NewEngineClient()
	if err != nil {
		return nil, err
	}
	return client, nil
}
