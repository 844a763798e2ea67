// Package development serves a local HTTP API for inspecting and driving a
// running device: list devices, services and apps, start and stop apps,
// scrape metrics and stream loader events over a WebSocket.
package development

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/api/middleware"
	"github.com/GriffinCanCode/tactility/internal/domain/app"
	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/config"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// ServiceID is the service id of the development server
const ServiceID = "development"

const shutdownTimeout = 2 * time.Second

// Deps are the runtime parts the API exposes
type Deps struct {
	Devices  *device.Registry
	Services *service.Registry
	Apps     *app.Registry
	Loader   *app.Loader
	Metrics  *monitoring.Metrics
}

// Server is the development HTTP server
type Server struct {
	deps   Deps
	cfg    config.DevelopmentConfig
	router *gin.Engine
	events *eventStream
	logger *logging.Logger

	mu      sync.Mutex
	httpSrv *http.Server  // Protected by mu
	ln      net.Listener  // Protected by mu
	serving chan struct{} // Protected by mu, closed when Serve returns
	addr    net.Addr      // Protected by mu
}

// New creates the server and its routes
func New(deps Deps, cfg config.DevelopmentConfig, logger *logging.Logger) *Server {
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger.Named(ServiceID),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once the service is started
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(s.logger))
	router.Use(monitoring.Middleware(s.deps.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.cfg.RPS > 0 {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.cfg.RPS,
			Burst:             s.cfg.Burst,
		}))
	}

	s.events = newEventStream(s.deps, s.logger)
	h := &handlers{deps: s.deps, logger: s.logger}
	router.GET("/health", h.health)
	router.GET("/devices", h.listDevices)
	router.GET("/services", h.listServices)
	router.GET("/apps", h.listApps)
	router.GET("/apps/stack", h.appStack)
	router.POST("/apps/:id/start", h.startApp)
	router.POST("/apps/stop", h.stopApp)
	router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	router.GET("/ws/events", s.events.handle)

	return router
}

// Manifest is the service manifest of the server. Start binds the address
// synchronously so a port conflict fails the service start.
func (s *Server) Manifest() service.Manifest {
	return service.Manifest{
		ID: ServiceID,
		OnStart: func(*service.Instance) error {
			return s.start()
		},
		OnStop: func(*service.Instance) {
			s.stop()
		},
	}
}

func (s *Server) start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serving := make(chan struct{})

	s.mu.Lock()
	s.httpSrv, s.ln, s.serving, s.addr = srv, ln, serving, ln.Addr()
	s.mu.Unlock()

	s.logger.Info("development server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		defer close(serving)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("development server failed", zap.Error(err))
		}
	}()
	return nil
}

// stop shuts the server down and waits for Serve to return. The listener
// is closed here too, since Shutdown only closes listeners Serve has taken.
func (s *Server) stop() {
	s.mu.Lock()
	srv, ln, serving := s.httpSrv, s.ln, s.serving
	s.httpSrv, s.ln, s.serving = nil, nil, nil
	s.mu.Unlock()
	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("development server shutdown", zap.Error(err))
	}
	_ = ln.Close()
	<-serving

	if n := s.events.closeAll(); n > 0 {
		s.logger.Info("event streams closed", zap.Int("count", n))
	}
}
