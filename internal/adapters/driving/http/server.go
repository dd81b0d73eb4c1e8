package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AuthEnabled    bool
	CORSOrigins    []string
	ChatRPS        float64 // Per-client chat requests per second; 0 disables limiting
	ChatBurst      int
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		Version:        "dev",
		AuthEnabled:    true,
		CORSOrigins:    []string{"*"},
		ChatRPS:        2,
		ChatBurst:      5,
		MaxUploadBytes: 100 << 20,
	}
}

// Services are the driving ports the server exposes
type Services struct {
	Auth      driving.AuthService
	Users     driving.UserService
	Documents driving.DocumentService
	Chat      driving.ChatService
	Health    driving.HealthService
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	cfg        Config
	logger     *slog.Logger

	authService driving.AuthService
	userService driving.UserService
	docService  driving.DocumentService
	chatService driving.ChatService
	health      driving.HealthService
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, services Services) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:      http.NewServeMux(),
		cfg:         cfg,
		logger:      cfg.Logger,
		authService: services.Auth,
		userService: services.Users,
		docService:  services.Documents,
		chatService: services.Chat,
		health:      services.Health,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streaming answers and large uploads outlive a short write timeout
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router wrapped in the global middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.cfg.CORSOrigins).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := NewAuthMiddleware(s.authService, s.cfg.AuthEnabled)
	limit := NewRateLimitMiddleware(s.cfg.ChatRPS, s.cfg.ChatBurst)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleLiveness)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /api/v1/health", s.handleHealth)

	// Auth endpoints
	s.router.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.Handle("GET /api/v1/auth/me", authed(s.handleGetMe))

	// Setup endpoint (public, one-time use)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	// Admin-only user management
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("PUT /api/v1/users/{id}/role", admin(s.handleAssignRole))
	s.router.Handle("PUT /api/v1/users/{id}/active", admin(s.handleSetActive))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))

	// Documents
	s.router.Handle("POST /api/v1/documents", authed(s.handleUploadDocument))
	s.router.Handle("GET /api/v1/documents", authed(s.handleListDocuments))
	s.router.Handle("GET /api/v1/documents/{id}", authed(s.handleGetDocument))
	s.router.Handle("GET /api/v1/documents/{id}/chunks", authed(s.handleGetDocumentChunks))
	s.router.Handle("DELETE /api/v1/documents/{id}", authed(s.handleDeleteDocument))
	s.router.Handle("POST /api/v1/documents/{id}/reindex", authed(s.handleReindexDocument))

	// Chat
	s.router.Handle("POST /api/v1/chat", auth.Authenticate(limit.Handler(http.HandlerFunc(s.handleChat))))
	s.router.Handle("POST /api/v1/chat/stream", auth.Authenticate(limit.Handler(http.HandlerFunc(s.handleChatStream))))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr, "auth_enabled", s.cfg.AuthEnabled)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
