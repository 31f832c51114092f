package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"

	"gitlab.com/codemark.net/internal/adapter/crypto"
	"gitlab.com/codemark.net/internal/adapter/docker"
	"gitlab.com/codemark.net/internal/adapter/hostexec"
	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/adapter/memory"
	"gitlab.com/codemark.net/internal/adapter/metrics"
	"gitlab.com/codemark.net/internal/adapter/postgres"
	"gitlab.com/codemark.net/internal/adapter/postgres/assignmentrepository"
	"gitlab.com/codemark.net/internal/adapter/postgres/resultrepository"
	"gitlab.com/codemark.net/internal/adapter/postgres/rosterrepository"
	"gitlab.com/codemark.net/internal/adapter/postgres/userrepository"
	"gitlab.com/codemark.net/internal/adapter/redis/runqueue"
	"gitlab.com/codemark.net/internal/adapter/redis/updates"
	"gitlab.com/codemark.net/internal/config"
	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	auth2 "gitlab.com/codemark.net/internal/core/services/auth"
	"gitlab.com/codemark.net/internal/core/services/broadcast"
	"gitlab.com/codemark.net/internal/core/services/executor"
	"gitlab.com/codemark.net/internal/core/services/planner"
	"gitlab.com/codemark.net/internal/core/services/results"
	logger2 "gitlab.com/codemark.net/internal/global/logger"
)

// app holds the adapters shared by every subcommand
type app struct {
	cfg    *config.AppConfig
	logger *logging.ZapLogger

	db          *sqlx.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics

	assignments *assignmentrepository.AssignmentRepository
	results     *resultrepository.ResultRepository
	rosters     *rosterrepository.RosterRepository
	users       secondary.UserPort

	queue      secondary.RunQueue
	publisher  secondary.UpdatePublisher
	subscriber secondary.UpdateSubscriber

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	logger := logger2.Logger
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	db, err := postgres.Connect(ctx, cfg.PostgresConfig.Url)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	a.assignments = assignmentrepository.NewAssignmentRepository(db, logger)
	a.results = resultrepository.NewResultRepository(db, logger)
	a.rosters = rosterrepository.NewRosterRepository(db, logger)
	a.users = userrepository.New(db, logger)

	if cfg.DispatchConfig.Queue == config.QueueRedis || cfg.HubConfig.Transport == config.TransportRedis {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Url,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		a.closers = append(a.closers, a.redisClient.Close)
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	switch cfg.DispatchConfig.Queue {
	case config.QueueRedis:
		a.queue = runqueue.NewRunQueue(a.redisClient, cfg.DispatchConfig.QueueKey, cfg.DispatchConfig.PollTimeout, logger)
	case config.QueueMemory:
		a.queue = memory.NewRunQueue(0, cfg.DispatchConfig.PollTimeout)
	default:
		a.close()
		return nil, fmt.Errorf("unknown run queue %q", cfg.DispatchConfig.Queue)
	}

	switch cfg.HubConfig.Transport {
	case config.TransportRedis:
		channel := updates.NewChannel(a.redisClient, cfg.HubConfig.Channel, logger)
		a.publisher, a.subscriber = channel, channel
	case config.TransportInproc:
		bus := memory.NewUpdateBus()
		a.publisher, a.subscriber = bus, bus
	default:
		a.close()
		return nil, fmt.Errorf("unknown updates transport %q", cfg.HubConfig.Transport)
	}

	return a, nil
}

func (a *app) plannerService() *planner.PlannerService {
	return planner.NewPlannerService(a.assignments, a.assignments, a.results, a.queue, a.logger)
}

func (a *app) resultService() *results.ResultService {
	return results.NewResultService(a.assignments, a.rosters, a.results, a.logger)
}

func (a *app) hub() *broadcast.Hub {
	hub := broadcast.NewHub(a.assignments, a.rosters, a.results, a.subscriber, a.cfg.HubConfig.SendBuffer, a.logger)
	hub.SetObserver(a.metrics)
	return hub
}

func (a *app) jwtService() primary.JWTService {
	return crypto.NewJWTService(a.cfg.JwtConfig)
}

func (a *app) localAuth() auth2.IAuthService {
	return auth2.NewLocalAuthService(a.users, a.jwtService(), a.logger)
}

func (a *app) executorService() (*executor.ExecutorService, error) {
	runtime, err := a.containerRuntime()
	if err != nil {
		return nil, err
	}
	mediaFs := afero.NewBasePathFs(afero.NewOsFs(), a.cfg.ExecutorConfig.MediaRoot)
	svc, err := executor.NewExecutorService(
		a.cfg.ExecutorConfig,
		a.results, a.assignments, a.assignments,
		runtime, a.publisher,
		afero.NewOsFs(), mediaFs,
		a.logger,
	)
	if err != nil {
		return nil, err
	}
	svc.SetObserver(a.metrics)
	return svc, nil
}

func (a *app) containerRuntime() (secondary.ContainerRuntime, error) {
	switch a.cfg.ExecutorConfig.Runtime {
	case config.RuntimeDocker:
		cli, err := docker.NewDockerClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create docker client: %w", err)
		}
		a.closers = append(a.closers, cli.Close)
		return docker.NewRuntime(cli, a.logger), nil
	case config.RuntimeLocal:
		a.logger.Warn("Running steps as host processes without isolation")
		return hostexec.NewRuntime(a.logger), nil
	default:
		return nil, fmt.Errorf("unknown runtime %q", a.cfg.ExecutorConfig.Runtime)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
