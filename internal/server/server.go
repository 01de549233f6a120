// Package server exposes the stego codec over HTTP.
//
// # Endpoints
//
//	GET  /api/v1/health
//	POST /api/v1/stego/insert     multipart: image, params (JSON), param (k=v, repeatable), code (files, repeatable)
//	POST /api/v1/stego/extract    multipart: image; ?params_only=true skips the code block
//	POST /api/v1/stego/capacity   multipart: image
//
// Errors are JSON objects with the error code, a message and the request ID.
// Every response carries an X-Request-ID header.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stegaplots/pkg/cache"
	"github.com/matzehuels/stegaplots/pkg/metadata"
)

// DefaultMaxUpload is the request body limit used when Options leaves it zero.
const DefaultMaxUpload = 32 << 20

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Nil uses log.Default().
	Logger *log.Logger

	// Cache stores extraction results keyed by image content. Nil disables it.
	Cache cache.Cache

	// Keyer builds cache keys. Nil uses the default keyer.
	Keyer cache.Keyer

	// CacheTTL is the lifetime of cached extraction results.
	CacheTTL time.Duration

	// MaxUpload limits request bodies in bytes.
	MaxUpload int64
}

// Server handles stego API requests.
type Server struct {
	logger    *log.Logger
	reader    *metadata.Reader
	maxUpload int64
	router    chi.Router
}

// New creates a server with routes registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	s := &Server{
		logger:    opts.Logger,
		reader:    &metadata.Reader{Cache: opts.Cache, Keyer: opts.Keyer, TTL: opts.CacheTTL},
		maxUpload: opts.MaxUpload,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/stego", func(r chi.Router) {
			r.Use(s.limitBody)
			r.Post("/insert", s.handleInsert)
			r.Post("/extract", s.handleExtract)
			r.Post("/capacity", s.handleCapacity)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to ten seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
