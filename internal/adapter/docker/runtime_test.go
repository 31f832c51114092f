package docker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap/zaptest"

	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

type fakeEngine struct {
	haveImage bool
	pulled    []string
	created   []*container.Config
	hosts     []*container.HostConfig
	started   []string
	stopped   []string
	removed   []string
	execs     []container.ExecOptions
	output    func() types.HijackedResponse
	exitCode  int
}

func (f *fakeEngine) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, ref)
	f.haveImage = true
	return io.NopCloser(strings.NewReader(`{"status":"done"}`)), nil
}

func (f *fakeEngine) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	if !f.haveImage {
		return container.CreateResponse{}, errdefs.NotFound(errors.New("no such image"))
	}
	f.created = append(f.created, config)
	f.hosts = append(f.hosts, hostConfig)
	return container.CreateResponse{ID: "c1"}, nil
}

func (f *fakeEngine) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	f.started = append(f.started, containerID)
	return nil
}

func (f *fakeEngine) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	f.stopped = append(f.stopped, containerID)
	return nil
}

func (f *fakeEngine) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.removed = append(f.removed, containerID)
	return errdefs.NotFound(errors.New("already removed"))
}

func (f *fakeEngine) ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (types.IDResponse, error) {
	f.execs = append(f.execs, options)
	return types.IDResponse{ID: "e1"}, nil
}

func (f *fakeEngine) ContainerExecAttach(ctx context.Context, execID string, config container.ExecAttachOptions) (types.HijackedResponse, error) {
	return f.output(), nil
}

func (f *fakeEngine) ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error) {
	return container.ExecInspect{ExecID: execID, ExitCode: f.exitCode}, nil
}

func multiplexed(t *testing.T, frames ...[2]string) types.HijackedResponse {
	t.Helper()
	var buf bytes.Buffer
	stdout := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	stderr := stdcopy.NewStdWriter(&buf, stdcopy.Stderr)
	for _, f := range frames {
		w := stdout
		if f[0] == "err" {
			w = stderr
		}
		if _, err := w.Write([]byte(f[1])); err != nil {
			t.Fatal(err)
		}
	}
	client, server := net.Pipe()
	server.Close()
	return types.HijackedResponse{Conn: client, Reader: bufio.NewReader(&buf)}
}

func newTestRuntime(t *testing.T, engine *fakeEngine) *Runtime {
	return NewRuntime(engine, logging.NewZapLoggerFrom(zaptest.NewLogger(t)))
}

func TestCreatePullsMissingImageAndMountsWorkspace(t *testing.T) {
	engine := &fakeEngine{}
	rt := newTestRuntime(t, engine)

	env, err := rt.Create(context.Background(), "python", secondary.Mount{Source: "/host/ws", Target: "/tmp"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(engine.pulled) != 1 || engine.pulled[0] != "python" {
		t.Errorf("image not pulled: %v", engine.pulled)
	}
	if env.ID != "c1" || env.Workdir != "/tmp" || len(engine.started) != 1 {
		t.Errorf("unexpected environment: %+v", env)
	}
	cfg, host := engine.created[0], engine.hosts[0]
	if !cfg.Tty || !cfg.OpenStdin {
		t.Error("container would exit before the steps run")
	}
	if len(host.Mounts) != 1 || host.Mounts[0].Source != "/host/ws" || host.Mounts[0].Target != "/tmp" || host.Mounts[0].ReadOnly {
		t.Errorf("unexpected mounts: %+v", host.Mounts)
	}
}

func TestExecDemultiplexesStreams(t *testing.T) {
	engine := &fakeEngine{haveImage: true, exitCode: 3}
	engine.output = func() types.HijackedResponse {
		return multiplexed(t, [2]string{"out", "hi\n"}, [2]string{"err", "oops\n"}, [2]string{"out", "bye\n"})
	}
	rt := newTestRuntime(t, engine)
	env := &secondary.Environment{ID: "c1", Workdir: "/tmp"}

	res, err := rt.Exec(context.Background(), env, secondary.ExecRequest{Cmd: []string{"sh", "-c", "echo hi"}})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if string(res.Stdout) != "hi\nbye\n" || string(res.Stderr) != "oops\n" || res.ExitCode != 3 {
		t.Errorf("unexpected result: stdout=%q stderr=%q exit=%d", res.Stdout, res.Stderr, res.ExitCode)
	}
	if got := engine.execs[0]; got.WorkingDir != "/tmp" || len(got.Cmd) != 3 || !got.AttachStdout || !got.AttachStderr {
		t.Errorf("unexpected exec options: %+v", got)
	}

	res, err = rt.Exec(context.Background(), env, secondary.ExecRequest{Cmd: []string{"true"}, Combined: true})
	if err != nil {
		t.Fatalf("Exec combined: %v", err)
	}
	if string(res.Stdout) != "hi\noops\nbye\n" || len(res.Stderr) != 0 {
		t.Errorf("combined stream out of order: %q", res.Stdout)
	}
}

func TestExecHonorsContextDeadline(t *testing.T) {
	engine := &fakeEngine{haveImage: true}
	engine.output = func() types.HijackedResponse {
		client, _ := net.Pipe()
		return types.HijackedResponse{Conn: client, Reader: bufio.NewReader(client)}
	}
	rt := newTestRuntime(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := rt.Exec(ctx, &secondary.Environment{ID: "c1"}, secondary.ExecRequest{Cmd: []string{"sleep", "10"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Exec did not return promptly")
	}
}

func TestStopIgnoresMissingContainer(t *testing.T) {
	engine := &fakeEngine{haveImage: true}
	rt := newTestRuntime(t, engine)

	if err := rt.Stop(context.Background(), &secondary.Environment{ID: "c1"}); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(engine.stopped) != 1 || len(engine.removed) != 1 {
		t.Errorf("container not stopped and removed: %v %v", engine.stopped, engine.removed)
	}
}
