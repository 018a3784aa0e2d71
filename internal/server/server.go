package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/api"
	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/metrics"
	"github.com/pageza/dishcraft/backend/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *zap.Logger
	closers []func() error
}

// New creates a server exposing the routes built from deps
func New(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, deps api.Dependencies) *Server {
	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger = logging.OrNop(logger)
	if deps.Logger == nil {
		deps.Logger = logger
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, ignoring forwarding headers", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger, m),
		middleware.ErrorHandler(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)
	api.RegisterRoutes(router, deps)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and releases its resources
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
