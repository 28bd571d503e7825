// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the
// whole dependency chain is assembled:
//
//	config → store backend (memory | sqlite | postgres)
//	       → PasswordService + CookieCodec
//	       → UserService + AuthService
//	       → handlers → routes
//
// Each layer only receives what it needs: services get the
// repository.UserStore interface (never a concrete store), handlers get
// services (never the store), and main.go gets a Server it can Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/auth"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/config"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/handler"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/middleware"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository/memory"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository/postgres"
	sqliteRepo "github.com/chang-ngeno/probable-memory-nextjs/internal/repository/sqlite"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/service"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/session"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store; sqlite and postgres backends hold real
// connections that must be closed on shutdown (flushing the WAL /
// releasing the pool). closeStore is a no-op for the memory backend.
type Server struct {
	router     *chi.Mux
	config     config.Config
	logger     *slog.Logger
	store      repository.UserStore
	closeStore func() error
}

// New creates a Server from config: opens the store backend, wires the
// services and handlers, and registers the routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		store:      store,
		closeStore: closeStore,
	}

	if cfg.Store.Seed {
		if err := s.seedDemoUsers(context.Background()); err != nil {
			closeStore()
			return nil, fmt.Errorf("seeding demo users: %w", err)
		}
	}

	s.setupRoutes()

	return s, nil
}

// openStore constructs the configured store backend.
func openStore(cfg config.StoreConfig, logger *slog.Logger) (repository.UserStore, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), func() error { return nil }, nil

	case config.BackendSQLite:
		store, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/login          → sign in (or clear the session with {})
//	GET    /auth/me             → current identity (never errors)
//	GET    /auth/policy         → inactivity policy for clients
//	GET    /users               → list users
//	POST   /users               → create user
//	GET    /users/{id}          → get user (id or identifier)
//	PUT    /users/{id}          → partial update
//	DELETE /users/{id}          → delete user
//	PATCH  /users/profile       → self-service profile update
//	GET    /api/nav             → navigation metadata
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// RequestID → RealIP → Recoverer → request logging.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500

	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService()
	cookies := auth.NewCookieCodec()

	userService := service.NewUserService(s.store, passwords, s.logger)
	authService := service.NewAuthService(s.store, passwords, cookies, s.config.Auth.TrustedLogin, s.logger)

	policy := session.Config{
		InactivityTimeout: s.config.InactivityTimeout(),
		WarningLeadTime:   s.config.WarningLead(),
	}

	authHandler := handler.NewAuthHandler(authService, policy, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	navHandler := handler.NewNavHandler()

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/me", authHandler.HandleMe)
		r.Get("/policy", authHandler.HandlePolicy)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Post("/", userHandler.HandleCreate)
		// Static /profile is matched before the {id} parameter by chi.
		r.Patch("/profile", userHandler.HandleProfile)
		r.Get("/{id}", userHandler.HandleGet)
		r.Put("/{id}", userHandler.HandleUpdate)
		r.Delete("/{id}", userHandler.HandleDelete)
	})

	s.router.Get("/api/nav", navHandler.HandleNav)
}

// Router exposes the configured router. Tests mount it on httptest.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// seedDemoUsers creates the two demo accounts when they don't exist yet.
// Both use the password "password" — demo data, not accounts.
func (s *Server) seedDemoUsers(ctx context.Context) error {
	passwords := auth.NewPasswordService()

	demo := []struct {
		name, email, role string
	}{
		{"Demo User", "demo@example.com", model.RoleAdmin},
		{"Demo Member", "member@example.com", model.RoleUser},
	}

	for _, d := range demo {
		if _, err := s.store.GetByEmail(ctx, d.email); err == nil {
			continue // already seeded
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		hash, err := passwords.Hash("password")
		if err != nil {
			return err
		}

		user := &model.User{
			Name:         d.name,
			Email:        d.email,
			Role:         d.role,
			PasswordHash: hash,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return err
		}
		s.logger.Info("seeded demo user",
			slog.String("email", d.email),
			slog.String("role", d.role),
		)
	}

	return nil
}

// Start starts the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30 s timeout)
// 3. Close the store (flushes the sqlite WAL / releases the pg pool)
func (s *Server) Start() error {
	defer s.closeStore()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.Store.Backend),
			slog.Bool("trustedLogin", s.config.Auth.TrustedLogin),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
