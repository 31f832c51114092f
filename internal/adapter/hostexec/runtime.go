package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

var _ secondary.ContainerRuntime = (*Runtime)(nil)

// Runtime runs step commands as host processes inside the workspace directory.
// It ignores the image and gives no isolation; it exists for development
// machines without a container engine.
type Runtime struct {
	logger    primary.Logger
	waitDelay time.Duration
}

func NewRuntime(logger primary.Logger) *Runtime {
	return &Runtime{
		logger:    logger,
		waitDelay: time.Second,
	}
}

func (r *Runtime) Create(ctx context.Context, image string, m secondary.Mount) (*secondary.Environment, error) {
	r.logger.Debug("Using host environment", "image", image, "dir", m.Source)
	return &secondary.Environment{
		ID:      uuid.NewString(),
		Image:   image,
		Workdir: m.Source,
	}, nil
}

// Exec starts the command in its own process group and kills the whole group
// when ctx ends
func (r *Runtime) Exec(ctx context.Context, env *secondary.Environment, req secondary.ExecRequest) (*secondary.ExecResult, error) {
	if len(req.Cmd) == 0 {
		return nil, fmt.Errorf("%w: empty command", secondary.ErrExecFailed)
	}
	cmd := exec.CommandContext(ctx, req.Cmd[0], req.Cmd[1:]...)
	cmd.Dir = env.Workdir
	cmd.WaitDelay = r.waitDelay
	killProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if req.Combined {
		cmd.Stderr = &stdout
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%w: %w", secondary.ErrExecFailed, err)
	}

	return &secondary.ExecResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

func (r *Runtime) Stop(ctx context.Context, env *secondary.Environment) error {
	return nil
}
