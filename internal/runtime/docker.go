package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// EngineClient talks to a Docker-compatible engine API. Podman serves the same
// API on its socket, so DOCKER_HOST can point at either.
type EngineClient struct {
	client *client.Client
}

// NewEngineClient creates a client from the environment (DOCKER_HOST and friends).
func NewEngineClient() (*EngineClient, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &EngineClient{client: dockerClient}, nil
}

// Ping checks the engine is reachable and returns its API version.
func (e *EngineClient) Ping(ctx context.Context) (string, error) {
	ping, err := e.client.Ping(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect to container engine: %w", err)
	}
	return ping.APIVersion, nil
}

// ImagePresent reports whether ref is available locally.
func (e *EngineClient) ImagePresent(ctx context.Context, ref string) (bool, error) {
	//nolint:staticcheck // ImageInspectWithRaw keeps the call source-compatible across SDK versions
	if _, _, err := e.client.ImageInspectWithRaw(ctx, ref); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}
	return true, nil
}

// PullImage pulls ref, discarding the progress stream.
func (e *EngineClient) PullImage(ctx context.Context, ref string) error {
	slog.Info("Pulling image", "image", ref)

	reader, err := e.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Pulled image", "image", ref)
	return nil
}

func (e *EngineClient) Close() error {
	return e.client.Close()
}
