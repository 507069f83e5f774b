package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	apimiddleware "github.com/aar-healthcare/medbot/infrastructure/api/middleware"
	v1 "github.com/aar-healthcare/medbot/infrastructure/api/v1"
	mcpinternal "github.com/aar-healthcare/medbot/internal/mcp"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

// MaxRequestBody caps the size of JSON request bodies.
const MaxRequestBody = 1 << 20

// Backend is what the HTTP surface needs from a medbot Client.
type Backend interface {
	Reply(ctx context.Context, message string) string
	Answer(ctx context.Context, message string) (chat.Answer, error)
	NearestClinics(ctx context.Context, lat, lng float64, k int) ([]clinic.Ranked, error)
	Ready() bool
}

// APIServer provides the pages, JSON endpoints, docs and MCP endpoint
// backed by a medbot Client.
type APIServer struct {
	backend      Backend
	version      string
	origins      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given backend.
// origins configures CORS; nil disables it.
func NewAPIServer(backend Backend, version string, origins []string, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		backend: backend,
		version: version,
		origins: origins,
		logger:  logger,
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	chatRouter := v1.NewChatRouter(a.backend, a.logger)
	clinicsRouter := v1.NewClinicsRouter(a.backend, a.logger)

	router.Get("/", page("index.html"))
	router.Get("/chat", page("chat.html"))

	v1.NewHealthRouter(a.backend).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(apimiddleware.CorrelationID)
		r.Use(apimiddleware.Logging(a.logger))
		r.Use(apimiddleware.MaxBody(MaxRequestBody))

		r.Post("/chat", chatRouter.Chat)
		r.Post("/find-clinics", clinicsRouter.FindClinics)

		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/chat", chatRouter.Routes())
			r.Mount("/find-clinics", clinicsRouter.Routes())
		})
	})

	router.Mount("/docs", NewDocsRouter("/docs/openapi.json").Routes())

	// No timeout middleware: MCP streams responses and keeps its session
	// id in response headers.
	mcpSrv := mcpinternal.NewServer(a.backend, a.backend, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.origins, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
