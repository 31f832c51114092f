package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gitlab.com/codemark.net/internal/adapter/metrics"
	http2 "gitlab.com/codemark.net/internal/http"
	"gitlab.com/codemark.net/internal/schedulerengine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API, the websocket hub and the dispatcher",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), true)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the dispatcher",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), false)
	},
}

func runServe(parent context.Context, withAPI bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sysCfg := loadConfig()
	a, err := newApp(ctx, sysCfg)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	executorSvc, err := a.executorService()
	if err != nil {
		return err
	}
	dispatcher := schedulerengine.NewDispatcher(sysCfg.DispatchConfig, a.queue, executorSvc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Start(gctx) })

	if withAPI {
		hub := a.hub()
		serviceProvider := http2.NewServiceProvider(a.plannerService(), a.resultService(), hub, a.jwtService(), a.localAuth())
		httpServer := http2.NewServer(sysCfg.ServerConfig.Port, "codemark", *serviceProvider, logger)
		if err := httpServer.Init(); err != nil {
			return err
		}
		g.Go(func() error { return hub.Run(gctx) })
		g.Go(func() error { return httpServer.Start(gctx) })
	}

	if sysCfg.ServerConfig.MonitorAddr != "" {
		monitor := metrics.NewServer(sysCfg.ServerConfig.MonitorAddr, a.metrics, logger)
		g.Go(func() error { return monitor.Start(gctx) })
	}

	logger.Info("Codemark started", "api", withAPI, "runtime", sysCfg.ExecutorConfig.Runtime,
		"queue", sysCfg.DispatchConfig.Queue, "transport", sysCfg.HubConfig.Transport)
	err = g.Wait()
	logger.Info("successfully shutdown server")
	return err
}
