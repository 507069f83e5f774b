package dto

// HealthResponse is returned by the health and readiness probes.
type HealthResponse struct {
	Status string `json:"status"`
}
