// Package httpapi exposes the authentication service over HTTP. It owns the
// router, the request/response JSON shapes, and the access-token guard; all
// business decisions live in the users service.
package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/RileyParsons/plateful/internal/logging"
	"github.com/RileyParsons/plateful/internal/server/auth"
	"github.com/RileyParsons/plateful/internal/server/users"
)

type Server struct {
	address string
	logger  logging.Logger
	users   *users.Service
	tokens  *auth.TokenService
}

func NewServer(address string, l logging.Logger, us *users.Service, ts *auth.TokenService) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		users:   us,
		tokens:  ts,
	}
}

// Handler builds the full route table. Requests are matched strictly by
// method and path; anything else gets the JSON 404.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/reset-request", s.handleResetRequest)
	r.Post("/auth/reset-complete", s.handleResetComplete)
	r.With(s.requireAuth).Get("/auth/me", s.handleMe)
	r.Get("/healthz", s.handleHealthz)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// recoverer is the single error boundary. It logs the method, path, error and
// stack, never the request body, and answers with an opaque 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error(r.Context(), "panic while handling request",
					"method", r.Method, "path", r.URL.Path,
					"error", rec, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, msgInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// internalError handles unexpected service failures the same way the panic
// boundary does: full detail server-side, opaque message to the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
