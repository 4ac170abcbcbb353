package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/handler"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/server/middleware"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// LoginRateLimit caps /login and /verify-login-otp requests per client
	// IP within LoginRateWindow. Zero disables the limit.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	Version string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRateLimit:  20,
		LoginRateWindow: time.Minute,
		Version:         "dev",
	}
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Server is the top-level HTTP server. It owns the chi router and the
// services behind the admin auth endpoints.
type Server struct {
	cfg        Config
	router     chi.Router
	login      *service.LoginService
	auth       *service.AuthService
	checks     map[string]Check
	onShutdown []func()
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. checks feed the readiness check.
func New(cfg Config, login *service.LoginService, auth *service.AuthService, checks map[string]Check, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		login:  login,
		auth:   auth,
		checks: checks,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Device-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.Version).ServeSpec)

	auth := handler.NewAuthHandler(s.login, s.logger)

	// --- Login flow (public) ---
	r.Group(func(r chi.Router) {
		if s.cfg.LoginRateLimit > 0 {
			r.Use(middleware.RateLimit(s.cfg.LoginRateLimit, s.cfg.LoginRateWindow))
		}
		r.Post("/login", auth.Login)
		r.Post("/verify-login-otp", auth.VerifyOTP)
	})
	r.Get("/login-attempts/{id}/status", auth.AttemptStatus)
	r.Post("/logout", auth.Logout)

	// --- Session required ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.auth))
		r.Get("/me", auth.Me)

		// --- Approvers only ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApprover())

			r.Post("/approve-device", auth.ApproveDevice)
			r.Post("/approve-device/{admin_id}", auth.ApproveAdminDevices)
			r.Get("/pending-login-attempts", auth.ListPending)
			r.Get("/pending-login-attempts/{admin_id}", auth.ListPending)
			r.Get("/login_attempts/today", auth.AttemptsToday)
			r.Delete("/login_attempts/{id}", auth.DeleteAttempt)
			r.Get("/admins", auth.ListAdmins)
		})
	})

	s.router = r
}

// handleHealthz reports liveness. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports readiness. Returns 200 when every dependency
// check passes, or 503 if any fails.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "error: " + err.Error()
			status = "degraded"
		} else {
			checks[name] = "ok"
		}
	}

	if status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// OnShutdown registers fn to run after the HTTP server has drained.
// Functions run in reverse registration order.
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before running the shutdown hooks.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.runShutdownHooks()
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.runShutdownHooks()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) runShutdownHooks() {
	for i := len(s.onShutdown) - 1; i >= 0; i-- {
		s.onShutdown[i]()
	}
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
