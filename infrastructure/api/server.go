package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// HTTP server timeouts. Writes get the longest budget because the first
// chat request may wait for setup.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server owns the root router and the http.Server listening on addr.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

// NewServer creates a Server with request ids, real client IPs and panic
// recovery. Browsers from origins may call the JSON endpoints; an empty list
// leaves CORS off.
func NewServer(addr string, origins []string, logger *slog.Logger) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	// No Timeout here: chi's Timeout wraps the ResponseWriter, which breaks
	// the streaming MCP endpoint. JSON routes get their own in mountRoutes.
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	if len(origins) > 0 {
		router.Use(corsHandler(origins))
	}

	return Server{router: router, addr: addr, logger: logger}
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID", "Mcp-Session-Id"},
		ExposedHeaders: []string{"X-Correlation-ID", "Mcp-Session-Id"},
		MaxAge:         300,
	})
}

// Router returns the root router.
func (s Server) Router() chi.Router { return s.router }

// Addr returns the listen address.
func (s Server) Addr() string { return s.addr }

// Start listens until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.logger.Info("listening", slog.String("addr", s.addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
