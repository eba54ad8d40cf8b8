package app

import (
	"context"
)

// Engine is the subset of the container engine API used by doctor and pull.
type Engine interface {
	Ping(ctx context.Context) (string, error)
	ImagePresent(ctx context.Context, ref string) (bool, error)
	PullImage(ctx context.Context, ref string) error
	Close() error
}

// EngineFactory connects to the container engine.
type EngineFactory func() (Engine, error)

// RuntimeStatus reports whether one supported runtime executable was found.
type RuntimeStatus struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

type EngineStatus struct {
	Reachable  bool   `json:"reachable"`
	APIVersion string `json:"apiVersion,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ImageStatus struct {
	Ref     string `json:"ref"`
	Present bool   `json:"present"`
	Error   string `json:"error,omitempty"`
}

// DoctorReport is the result of checking the host for everything a compile needs.
type DoctorReport struct {
	Runtimes []RuntimeStatus `json:"runtimes"`
	// Selected is the runtime auto-selection would pick, empty when none is installed.
	Selected string       `json:"selected,omitempty"`
	Engine   EngineStatus `json:"engine"`
	Image    ImageStatus  `json:"image"`
}
