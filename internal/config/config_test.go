package config

import (
	"testing"
	"time"
)

func TestNewSystemConfigDefaults(t *testing.T) {
	for _, key := range []string{"MOUNT_PATH", "RUNTIME", "EXEC_SHELL", "RUN_PARALLELISM", "RUN_QUEUE",
		"UPDATES_TRANSPORT", "WS_SEND_BUFFER", "HTTP_PORT", "REDIS_ADDR", "REDIS_DB", "JWT_TTL_MIN"} {
		t.Setenv(key, "")
	}

	cfg := NewSystemConfig()

	if cfg.ExecutorConfig.MountPath != "/tmp" {
		t.Errorf("mount path = %q", cfg.ExecutorConfig.MountPath)
	}
	if cfg.ExecutorConfig.Runtime != RuntimeDocker || cfg.ExecutorConfig.ExecShell != "sh -c" {
		t.Errorf("unexpected executor defaults: %+v", cfg.ExecutorConfig)
	}
	if cfg.DispatchConfig.Parallelism != 4 || cfg.DispatchConfig.Queue != QueueRedis {
		t.Errorf("unexpected dispatch defaults: %+v", cfg.DispatchConfig)
	}
	if cfg.HubConfig.Transport != TransportRedis || cfg.HubConfig.SendBuffer != 16 {
		t.Errorf("unexpected hub defaults: %+v", cfg.HubConfig)
	}
	if cfg.ServerConfig.Port != "8080" || cfg.RedisConfig.Url != "localhost:6379" {
		t.Errorf("unexpected server/redis defaults")
	}
	if cfg.JwtConfig.TokenTTL != time.Hour {
		t.Errorf("token ttl = %s", cfg.JwtConfig.TokenTTL)
	}
}

func TestNewSystemConfigFromEnv(t *testing.T) {
	t.Setenv("MOUNT_PATH", "/work")
	t.Setenv("RUNTIME", RuntimeLocal)
	t.Setenv("RUN_PARALLELISM", "8")
	t.Setenv("RUN_QUEUE", QueueMemory)
	t.Setenv("UPDATES_TRANSPORT", TransportInproc)
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IMAGE_JAVA", "eclipse-temurin:21")

	cfg := NewSystemConfig()

	if cfg.ExecutorConfig.MountPath != "/work" || cfg.ExecutorConfig.Runtime != RuntimeLocal {
		t.Errorf("executor config not read from env: %+v", cfg.ExecutorConfig)
	}
	if cfg.ExecutorConfig.ImageRefs["java"] != "eclipse-temurin:21" {
		t.Errorf("image override missing: %v", cfg.ExecutorConfig.ImageRefs)
	}
	if cfg.DispatchConfig.Parallelism != 8 || cfg.DispatchConfig.Queue != QueueMemory {
		t.Errorf("dispatch config not read from env: %+v", cfg.DispatchConfig)
	}
	if cfg.HubConfig.Transport != TransportInproc || cfg.RedisConfig.DB != 3 {
		t.Errorf("hub/redis config not read from env")
	}
}

func TestImageRefsFromEnv(t *testing.T) {
	refs := imageRefsFromEnv([]string{"IMAGE_GCC=gcc:13", "IMAGE_NODE=", "PATH=/bin", "IMAGE_PYTHON=python:3.12=x"})
	if len(refs) != 2 || refs["gcc"] != "gcc:13" || refs["python"] != "python:3.12=x" {
		t.Errorf("unexpected refs: %v", refs)
	}
}
