package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/logger"
)

const (
	readTimeoutHTTP = 15 * time.Second
	idleTimeout     = 60 * time.Second

	// 20종목 × 요청 간격 + 응답 시간을 넘어야 함
	scanWriteTimeout = 2 * time.Minute
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	env        string
	source     string
}

// New creates a new API server listening on cfg.Port
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: readTimeoutHTTP,
			ReadTimeout:       readTimeoutHTTP,
			WriteTimeout:      scanWriteTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: log.Component("api"),
		env:    cfg.Env,
		source: cfg.Scan.Source,
	}
}

// Start binds the configured address and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.logger.WithFields(map[string]interface{}{
		"addr":   ln.Addr().String(),
		"env":    s.env,
		"source": s.source,
	}).Info("Starting API server")

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
