// Package docker talks to the Docker engine for the few operations the
// compose CLI does not cover: named volume removal and daemon health.
package docker

import (
	"context"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/moby/moby/client"
	"github.com/schmitthub/rdsharness/internal/logger"
)

// APIClient is the subset of the moby client the Engine uses.
// *client.Client satisfies it.
type APIClient interface {
	Ping(ctx context.Context, opts client.PingOptions) (client.PingResult, error)
	VolumeRemove(ctx context.Context, volumeID string, opts client.VolumeRemoveOptions) (client.VolumeRemoveResult, error)
	Close() error
}

// Engine wraps a Docker API client.
type Engine struct {
	cli APIClient
}

// NewEngine connects to the daemon configured by the environment
// (DOCKER_HOST etc.) and verifies it responds.
func NewEngine(ctx context.Context) (*Engine, error) {
	cli, err := client.New(client.FromEnv)
	if err != nil {
		return nil, ErrDockerNotRunning(err)
	}

	e := &Engine{cli: cli}
	if err := e.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return e, nil
}

// NewEngineWithClient wraps an existing client. Intended for tests.
func NewEngineWithClient(cli APIClient) *Engine {
	return &Engine{cli: cli}
}

// Ping verifies the Docker daemon is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.cli.Ping(ctx, client.PingOptions{}); err != nil {
		return ErrDockerNotRunning(err)
	}
	return nil
}

// Close releases Docker client resources.
func (e *Engine) Close() error {
	return e.cli.Close()
}

// RemoveVolume force-removes a named volume. A volume that does not exist
// counts as removed.
func (e *Engine) RemoveVolume(ctx context.Context, name string) error {
	_, err := e.cli.VolumeRemove(ctx, name, client.VolumeRemoveOptions{Force: true})
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			logger.Debug().Str("volume", name).Msg("volume already absent")
			return nil
		}
		return ErrVolumeRemoveFailed(name, err)
	}
	logger.Debug().Str("volume", name).Msg("removed volume")
	return nil
}

// Available reports whether a Docker daemon can be reached at all.
func Available(ctx context.Context) bool {
	e, err := NewEngine(ctx)
	if err != nil {
		return false
	}
	defer e.Close()
	return true
}

func (e *Engine) String() string {
	return fmt.Sprintf("docker engine (%T)", e.cli)
}
