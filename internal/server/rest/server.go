// Package rest exposes the account API over HTTP JSON.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	DefaultAPIPrefix       = "/api/v1"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

type Options struct {
	Address         string
	APIPrefix       string
	FrontendURL     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Google          GoogleOAuthConfig
}

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	logger          logging.Logger
	users           UserService
	health          Pinger
	google          *googleOAuth
	handler         http.Handler
}

// NewHTTPServer builds the router. health may be nil.
func NewHTTPServer(opts Options, l logging.Logger, us UserService, health Pinger) *HTTPServer {
	if opts.APIPrefix == "" {
		opts.APIPrefix = DefaultAPIPrefix
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &HTTPServer{
		address:         opts.Address,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          l.With("module", "http_server"),
		users:           us,
		health:          health,
	}
	if opts.Google.Enabled() {
		if opts.Google.FrontendURL == "" {
			opts.Google.FrontendURL = opts.FrontendURL
		}
		s.google = newGoogleOAuth(opts.Google)
	}

	s.handler = s.routes(opts)
	return s
}

func (s *HTTPServer) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)

	r.Route(opts.APIPrefix+"/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/google/verify", s.googleVerify)

		if s.google != nil {
			r.Get("/google", s.googleLogin)
			r.Get("/google/callback", s.googleCallback)
		}

		r.With(RequireAuth(s.users, s.logger)).Get("/me", s.me)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "graceful shutdown failed", "error", err)
			_ = srv.Close()
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}
