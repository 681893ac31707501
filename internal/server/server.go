package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/config"
	"github.com/hongminglow/task-tracker/internal/http/handlers"
	"github.com/hongminglow/task-tracker/internal/middleware"
	"github.com/hongminglow/task-tracker/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *slog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the full middleware chain and route table.
func NewHandler(cfg config.Config, store storage.Store, logger *slog.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authenticator := auth.NewAuthenticator(store, auth.NewPasswordHasher(cfg.BcryptCost), tokens)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(authenticator, logger).Register(mux)
	handlers.NewTaskHandler(store, logger).Register(mux)

	var handler http.Handler = mux
	handler = middleware.Authenticate(middleware.AuthOptions{
		Resolver:   auth.NewResolver(tokens, store),
		Bypass:     cfg.AuthBypass,
		FailClosed: cfg.AuthFailClosed,
		Logger:     logger,
	}, handler)
	handler = middleware.Recover(logger, handler)
	handler = middleware.Logging(logger, handler)
	return middleware.CORS(cfg.CORSOrigins, handler)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
