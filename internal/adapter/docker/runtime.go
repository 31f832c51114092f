package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

var _ secondary.ContainerRuntime = (*Runtime)(nil)

// engineAPI is the part of the Docker Engine client the runtime needs
type engineAPI interface {
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// Runtime runs levels in Docker containers on the local engine
type Runtime struct {
	api         engineAPI
	logger      primary.Logger
	stopTimeout int
}

func NewDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

func NewRuntime(api engineAPI, logger primary.Logger) *Runtime {
	return &Runtime{
		api:         api,
		logger:      logger,
		stopTimeout: 1,
	}
}

// Create starts a long-lived container with the workspace bind mounted read-write.
// The image is pulled when the engine does not have it yet.
func (r *Runtime) Create(ctx context.Context, ref string, m secondary.Mount) (*secondary.Environment, error) {
	cfg := &container.Config{
		Image:      ref,
		Tty:        true,
		OpenStdin:  true,
		WorkingDir: m.Target,
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: m.Source,
			Target: m.Target,
		}},
	}

	resp, err := r.api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if errdefs.IsNotFound(err) {
		if pullErr := r.pull(ctx, ref); pullErr != nil {
			return nil, pullErr
		}
		resp, err = r.api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create container from %s: %w", ref, err)
	}
	for _, w := range resp.Warnings {
		r.logger.Warn("Container created with warning", "container", resp.ID, "warning", w)
	}

	if err := r.api.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		r.remove(resp.ID)
		return nil, fmt.Errorf("failed to start container %s: %w", resp.ID, err)
	}

	r.logger.Debug("Container started", "container", resp.ID, "image", ref)
	return &secondary.Environment{ID: resp.ID, Image: ref, Workdir: m.Target}, nil
}

func (r *Runtime) pull(ctx context.Context, ref string) error {
	r.logger.Info("Pulling image", "image", ref)
	rc, err := r.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	defer rc.Close()
	// the pull only completes once the progress stream is drained
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	return nil
}

// Exec runs one command inside the container and waits for it or for ctx.
// When ctx ends first the attached stream is closed and ctx.Err() is returned;
// the process itself is left to die with the container.
func (r *Runtime) Exec(ctx context.Context, env *secondary.Environment, req secondary.ExecRequest) (*secondary.ExecResult, error) {
	created, err := r.api.ContainerExecCreate(ctx, env.ID, container.ExecOptions{
		Cmd:          req.Cmd,
		WorkingDir:   env.Workdir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create exec: %w", secondary.ErrExecFailed, err)
	}

	attach, err := r.api.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to attach exec: %w", secondary.ErrExecFailed, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		if req.Combined {
			_, err := stdcopy.StdCopy(&stdout, &stdout, attach.Reader)
			copied <- err
			return
		}
		_, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		copied <- err
	}()

	select {
	case <-ctx.Done():
		attach.Close()
		<-copied
		return nil, ctx.Err()
	case err := <-copied:
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read exec output: %w", secondary.ErrExecFailed, err)
		}
	}

	inspect, err := r.api.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to inspect exec: %w", secondary.ErrExecFailed, err)
	}

	return &secondary.ExecResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// Stop stops and removes the container. A container that is already gone is not an error.
func (r *Runtime) Stop(ctx context.Context, env *secondary.Environment) error {
	timeout := r.stopTimeout
	if err := r.api.ContainerStop(ctx, env.ID, container.StopOptions{Timeout: &timeout}); err != nil && !errdefs.IsNotFound(err) {
		r.logger.Warn("Failed to stop container gracefully", "container", env.ID, "error", err)
	}
	if err := r.api.ContainerRemove(ctx, env.ID, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove container %s: %w", env.ID, err)
	}
	return nil
}

func (r *Runtime) remove(id string) {
	if err := r.api.ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		r.logger.Error("Failed to remove container", "container", id, "error", err)
	}
}
