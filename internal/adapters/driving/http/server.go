package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	maxUpload  int64
	logger     *slog.Logger
	sanitizer  *Sanitizer

	// Services
	intakeService driving.IntakeService
	verifier      driven.TokenVerifier // nil disables operator auth

	// Infrastructure
	db   Pinger // PostgreSQL health check
	lock Pinger // Lock backend health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MaxUploadBytes int64
	AllowedOrigins []string
	RateLimit      float64 // requests per second per client, 0 disables
	RateBurst      int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: domain.DefaultMaxUploadBytes,
		AllowedOrigins: []string{"*"},
		RateLimit:      20,
		RateBurst:      40,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	intakeService driving.IntakeService,
	verifier driven.TokenVerifier, // can be nil
	db Pinger,
	lock Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = domain.DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		maxUpload:     cfg.MaxUploadBytes,
		logger:        logger,
		sanitizer:     NewSanitizer(),
		intakeService: intakeService,
		verifier:      verifier,
		db:            db,
		lock:          lock,
	}

	s.setupRoutes()

	// Outermost first
	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewRequestIDMiddleware().Handler(
			NewLoggingMiddleware(logger).Handler(
				NewCORSMiddleware(cfg.AllowedOrigins).Handler(
					NewRateLimitMiddleware(cfg.RateLimit, cfg.RateBurst).Handler(s.router)))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := NewOperatorAuthMiddleware(s.verifier)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Intake endpoints
	s.router.Handle("POST /api/v1/intakes",
		auth.Authenticate(http.HandlerFunc(s.handleUpload)))
	s.router.Handle("GET /api/v1/intakes",
		auth.Authenticate(http.HandlerFunc(s.handleListIntakes)))
	s.router.Handle("GET /api/v1/intakes/review.xlsx",
		auth.Authenticate(http.HandlerFunc(s.handleExportReviewQueue)))
	s.router.Handle("GET /api/v1/intakes/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleGetIntake)))
	s.router.Handle("POST /api/v1/intakes/{id}/orders",
		auth.Authenticate(http.HandlerFunc(s.handleCreateOrderFromIntake)))

	// Direct creation and resolution
	s.router.Handle("POST /api/v1/orders",
		auth.Authenticate(http.HandlerFunc(s.handleCreateOrder)))
	s.router.Handle("POST /api/v1/resolve",
		auth.Authenticate(http.HandlerFunc(s.handleResolve)))
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
