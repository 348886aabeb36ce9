// Package api provides the HTTP REST API for homeydash.
//
// It exposes dashboard management, grid layout, device groups, raw hub
// device and flow access, and hub settings to the dashboard frontend.
//
// The server follows the usual lifecycle pattern:
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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vstoms/homeydash/internal/dashboard"
	"github.com/vstoms/homeydash/internal/homey"
	"github.com/vstoms/homeydash/internal/hubsettings"
	"github.com/vstoms/homeydash/internal/infrastructure/config"
	"github.com/vstoms/homeydash/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      *config.Config
	Logger      *logging.Logger
	Dashboards  dashboard.Repository
	Groups      dashboard.GroupRepository
	HubSettings *hubsettings.Repository
	Cache       *homey.Cache
	Version     string
}

// Server is the HTTP API server for homeydash.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg         *config.Config
	logger      *logging.Logger
	dashboards  dashboard.Repository
	groups      dashboard.GroupRepository
	hubSettings *hubsettings.Repository
	cache       *homey.Cache
	version     string
	server      *http.Server

	// Per-client rate limiting, keyed by remote host. Nil map means
	// limiting is disabled.
	limiterMu    sync.Mutex
	limiters     map[string]*clientLimiter
	limiterRate  rate.Limit
	limiterBurst int
}

// clientLimiter tracks one remote host's token bucket. lastSeen drives
// eviction of idle entries.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dashboards == nil {
		return nil, fmt.Errorf("dashboard repository is required")
	}
	if deps.Groups == nil {
		return nil, fmt.Errorf("group repository is required")
	}
	if deps.HubSettings == nil {
		return nil, fmt.Errorf("hub settings repository is required")
	}

	s := &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		dashboards:  deps.Dashboards,
		groups:      deps.Groups,
		hubSettings: deps.HubSettings,
		cache:       deps.Cache,
		version:     deps.Version,
	}
	if s.cache == nil {
		s.cache = homey.NewCache(deps.Config.GetHubCacheTTL())
	}

	if rl := deps.Config.Security.RateLimit; rl.Enabled && rl.RequestsPerMinute > 0 {
		s.limiters = make(map[string]*clientLimiter)
		s.limiterRate = rate.Limit(float64(rl.RequestsPerMinute) / 60.0)
		s.limiterBurst = rl.RequestsPerMinute
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
// It waits up to 10 seconds for in-flight requests to complete.
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

// HealthCheck verifies the API server is running and responsive.
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

// hubClient builds a hub client from the active settings row.
// When no hub is configured the client is still valid; every call on
// it short-circuits to empty results.
func (s *Server) hubClient(ctx context.Context) *homey.Client {
	return homey.NewClient(s.hubSettings.Connection(ctx), homey.Options{
		RequestTimeout: s.cfg.GetHubRequestTimeout(),
		ConnectTimeout: s.cfg.GetHubConnectTimeout(),
		Logger:         s.logger,
	})
}
