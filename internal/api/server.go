// Package api provides the HTTP surface of camcore.
//
// It exposes the login/logout endpoints, the gated device-state endpoints
// polled by both the dashboard and the embedded device, and a health check.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sgruber/camcore/internal/camera"
	"github.com/sgruber/camcore/internal/infrastructure/config"
	"github.com/sgruber/camcore/internal/infrastructure/influxdb"
	"github.com/sgruber/camcore/internal/infrastructure/logging"
	"github.com/sgruber/camcore/internal/infrastructure/mqtt"
	"github.com/sgruber/camcore/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.API
	Auth     config.Auth
	Logger   *logging.Logger
	Sessions *session.Service
	Gate     *session.Gate
	States   camera.Repository
	History  camera.HistoryRepository
	MQTT     *mqtt.Client     // optional: retained state fan-out
	Influx   *influxdb.Client // optional: transition recording
	Version  string
}

// Server is the HTTP API server for camcore.
//
// State is injected, never package-level: every test can build an isolated
// server over its own repository.
type Server struct {
	cfg      config.API
	authCfg  config.Auth
	logger   *logging.Logger
	sessions *session.Service
	gate     *session.Gate
	states   camera.Repository
	history  camera.HistoryRepository
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("request gate is required")
	}
	if deps.States == nil {
		return nil, fmt.Errorf("state repository is required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("history repository is required")
	}
	// MQTT and InfluxDB are optional fan-out; reads/writes work without them

	return &Server{
		cfg:      deps.Config,
		authCfg:  deps.Auth,
		logger:   deps.Logger,
		sessions: deps.Sessions,
		gate:     deps.Gate,
		states:   deps.States,
		history:  deps.History,
		mqtt:     deps.MQTT,
		influx:   deps.Influx,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; stop it with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
