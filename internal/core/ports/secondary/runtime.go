package secondary

import (
	"context"
	"errors"
)

var ErrExecFailed = errors.New("exec failed")

// Mount binds a host directory into an environment
type Mount struct {
	Source string
	Target string
}

// Environment is a running execution environment
type Environment struct {
	ID    string
	Image string
	// Workdir is where the workspace is visible inside the environment
	Workdir string
}

type ExecRequest struct {
	// Cmd is the full argv, shell prefix included
	Cmd []string
	// Combined captures stdout and stderr into a single stream
	Combined bool
}

type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ContainerRuntime creates environments and runs commands in them.
// Exec must return promptly once ctx is done.
type ContainerRuntime interface {
	Create(ctx context.Context, image string, mount Mount) (*Environment, error)
	Exec(ctx context.Context, env *Environment, req ExecRequest) (*ExecResult, error)
	Stop(ctx context.Context, env *Environment) error
}
