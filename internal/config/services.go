package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RuntimeDocker = "docker"
	RuntimeLocal  = "local"

	QueueRedis  = "redis"
	QueueMemory = "memory"

	TransportRedis  = "redis"
	TransportInproc = "inproc"
)

type ExecutorConfig struct {
	WorkspaceRoot string
	MediaRoot     string
	MountPath     string
	Runtime       string
	// ExecShell is prepended to every step command, e.g. "sh -c"
	ExecShell string
	// ImageRefs maps an image choice to the reference pulled by the runtime
	ImageRefs map[string]string
}

func NewExecutorConfig() *ExecutorConfig {
	mountPath := os.Getenv("MOUNT_PATH")
	if mountPath == "" {
		mountPath = "/tmp"
	}
	runtime := os.Getenv("RUNTIME")
	if runtime == "" {
		runtime = RuntimeDocker
	}
	shell := os.Getenv("EXEC_SHELL")
	if shell == "" {
		shell = "sh -c"
	}
	mediaRoot := os.Getenv("MEDIA_ROOT")
	if mediaRoot == "" {
		mediaRoot = "media"
	}
	return &ExecutorConfig{
		WorkspaceRoot: os.Getenv("WORKSPACE_ROOT"),
		MediaRoot:     mediaRoot,
		MountPath:     mountPath,
		Runtime:       runtime,
		ExecShell:     shell,
		ImageRefs:     imageRefsFromEnv(os.Environ()),
	}
}

// imageRefsFromEnv collects IMAGE_<NAME>=<ref> overrides
func imageRefsFromEnv(environ []string) map[string]string {
	refs := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "IMAGE_") || value == "" {
			continue
		}
		refs[strings.ToLower(strings.TrimPrefix(key, "IMAGE_"))] = value
	}
	return refs
}

type DispatchConfig struct {
	Parallelism int
	Queue       string
	QueueKey    string
	PollTimeout time.Duration
}

func NewDispatchConfig() *DispatchConfig {
	parallelism, err := strconv.Atoi(os.Getenv("RUN_PARALLELISM"))
	if err != nil || parallelism <= 0 {
		parallelism = 4
	}
	queue := os.Getenv("RUN_QUEUE")
	if queue == "" {
		queue = QueueRedis
	}
	pollSec, err := strconv.Atoi(os.Getenv("RUN_POLL_TIMEOUT_SEC"))
	if err != nil || pollSec <= 0 {
		pollSec = 5
	}
	return &DispatchConfig{
		Parallelism: parallelism,
		Queue:       queue,
		QueueKey:    "codemark:runs",
		PollTimeout: time.Duration(pollSec) * time.Second,
	}
}

type HubConfig struct {
	Transport  string
	Channel    string
	SendBuffer int
}

func NewHubConfig() *HubConfig {
	transport := os.Getenv("UPDATES_TRANSPORT")
	if transport == "" {
		transport = TransportRedis
	}
	buffer, err := strconv.Atoi(os.Getenv("WS_SEND_BUFFER"))
	if err != nil || buffer <= 0 {
		buffer = 16
	}
	return &HubConfig{
		Transport:  transport,
		Channel:    "codemark:results",
		SendBuffer: buffer,
	}
}

type ServerConfig struct {
	Port        string
	MonitorAddr string
}

func NewServerConfig() *ServerConfig {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	return &ServerConfig{
		Port:        port,
		MonitorAddr: os.Getenv("MONITOR_ADDR"),
	}
}
