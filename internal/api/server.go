package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/charliek/netscope/internal/constants"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Host        string
	Port        int
	AuthEnabled bool   // Whether a bearer token is required on /api/v1
	Token       string // Only used if AuthEnabled is true
}

// Server serves the request API over HTTP
type Server struct {
	config     ServerConfig
	router     chi.Router
	handlers   *Handlers
	httpServer *http.Server
}

// NewServer creates a server and registers its routes. Nothing listens
// until Start is called.
func NewServer(config ServerConfig, handlers *Handlers) *Server {
	s := &Server{
		config:   config,
		router:   chi.NewRouter(),
		handlers: handlers,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(localCORS)
	s.routes()

	// Streams are long-lived, so only the header read is bounded. Hijacked
	// WebSocket connections keep any deadline set here.
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.config.AuthEnabled {
			r.Use(requireToken(s.config.Token))
		}

		// Streams must not inherit the request timeout
		r.Get("/requests/stream", s.handlers.StreamRequests)
		r.Get("/requests/ws", s.handlers.WatchRequests)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(constants.DefaultRequestTimeout))

			r.Get("/status", s.handlers.GetStatus)
			r.Get("/filters", s.handlers.GetFilters)

			r.Get("/requests", s.handlers.GetRequests)
			r.Post("/requests", s.handlers.IngestRequests)
			r.Delete("/requests", s.handlers.ClearRequests)
			r.Get("/requests/{id}", s.handlers.GetRequest)
		})
	})
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the server stops.
// After Shutdown it returns http.ErrServerClosed.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
// It is safe to call on a server that was never started.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the host:port the server listens on
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}
