package web

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout must outlast the slowest pipeline run, since the
	// response is written after the completion returns
	WriteTimeout time.Duration

	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns defaults for a pipeline bounded by
// requestTimeout
func DefaultServerConfig(requestTimeout time.Duration) ServerConfig {
	return ServerConfig{
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    requestTimeout + 30*time.Second,
		IdleTimeout:     60 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server wraps an HTTP server around a handler
type Server struct {
	addr       string
	config     ServerConfig
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a server for handler. An empty addr listens on :10080.
func NewServer(addr string, handler http.Handler, config ServerConfig) *Server {
	if addr == "" {
		addr = ":10080"
	}
	return &Server{
		addr:    addr,
		config:  config,
		handler: handler,
		httpServer: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    config.ReadTimeout,
			WriteTimeout:   config.WriteTimeout,
			IdleTimeout:    config.IdleTimeout,
			MaxHeaderBytes: config.MaxHeaderBytes,
		},
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled and then shuts down gracefully,
// letting in-flight deliveries finish within ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server address
func (s *Server) Addr() string {
	return s.addr
}
