package v1

import (
	"net/http"

	"github.com/aar-healthcare/medbot/infrastructure/api/middleware"
	"github.com/aar-healthcare/medbot/infrastructure/api/v1/dto"
	"github.com/go-chi/chi/v5"
)

// ReadinessChecker reports whether setup has completed.
type ReadinessChecker interface {
	Ready() bool
}

// HealthRouter serves liveness and readiness probes.
type HealthRouter struct {
	checker ReadinessChecker
}

// NewHealthRouter creates a new HealthRouter.
func NewHealthRouter(checker ReadinessChecker) *HealthRouter {
	return &HealthRouter{checker: checker}
}

// Register adds /health, /healthz and /readyz to router.
func (h *HealthRouter) Register(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/healthz", h.Health)
	router.Get("/readyz", h.Ready)
}

// Health reports healthy while the process serves requests.
func (h *HealthRouter) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

// Ready answers 503 until setup has completed.
func (h *HealthRouter) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.checker.Ready() {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "starting"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ready"})
}
