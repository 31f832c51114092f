package config

import "os"

type AppConfig struct {
	DebugMode      bool
	LogLevel       string
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
	ExecutorConfig *ExecutorConfig
	DispatchConfig *DispatchConfig
	HubConfig      *HubConfig
	ServerConfig   *ServerConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		LogLevel:       os.Getenv("LOG_LEVEL"),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
		ExecutorConfig: NewExecutorConfig(),
		DispatchConfig: NewDispatchConfig(),
		HubConfig:      NewHubConfig(),
		ServerConfig:   NewServerConfig(),
	}
}
