package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	auth2 "gitlab.com/codemark.net/internal/core/services/auth"
	"gitlab.com/codemark.net/internal/core/services/broadcast"
	"gitlab.com/codemark.net/internal/core/services/planner"
	"gitlab.com/codemark.net/internal/core/services/results"
	"gitlab.com/codemark.net/internal/handlers"
	"gitlab.com/codemark.net/internal/handlers/auth"
	"gitlab.com/codemark.net/internal/handlers/runs"
	"gitlab.com/codemark.net/internal/ws"
)

type ServiceProvider struct {
	plannerService planner.IPlannerService
	resultService  results.IResultService
	hub            broadcast.IBroadcastService
	jwtService     primary.JWTService

	localAuth auth2.IAuthService
}

func NewServiceProvider(
	plannerService planner.IPlannerService,
	resultService results.IResultService,
	hub broadcast.IBroadcastService,
	jwtService primary.JWTService,
	localAuth auth2.IAuthService,
) *ServiceProvider {
	return &ServiceProvider{
		plannerService: plannerService,
		resultService:  resultService,
		hub:            hub,
		jwtService:     jwtService,
		localAuth:      localAuth,
	}
}

type Server struct {
	router          *mux.Router
	Port            string
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(port string, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

// Init builds the router. Login and the websocket route authenticate on their
// own; every /api route goes through the JWT middleware.
func (s *Server) Init() error {
	r := mux.NewRouter()
	auth.NewHandler(s.logger).RegisterRoutes(r, &auth.ServiceDependencies{
		LocalAuthService: s.ServiceProvider.localAuth,
	})
	ws.NewServer(s.ServiceProvider.hub, s.ServiceProvider.jwtService, s.logger).RegisterRoutes(r)

	api := r.NewRoute().Subrouter()
	api.Use(handlers.New(s.ServiceProvider.jwtService, s.logger).JWTMiddleware)
	runs.NewRunHandler(s.ServiceProvider.plannerService, s.ServiceProvider.resultService, s.logger).RegisterRoutes(api)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	s.router = r
	return nil
}

func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is done, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		if err := s.Init(); err != nil {
			return err
		}
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", srv.Addr, "service", s.ServiceName)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("Server error", "error", err)
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down http server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
