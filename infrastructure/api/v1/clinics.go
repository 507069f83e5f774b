package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/infrastructure/api/middleware"
	"github.com/aar-healthcare/medbot/infrastructure/api/v1/dto"
	"github.com/go-chi/chi/v5"
)

// ClinicFinder ranks clinics by distance.
type ClinicFinder interface {
	NearestClinics(ctx context.Context, lat, lng float64, k int) ([]clinic.Ranked, error)
}

// FindClinicsFailedMessage is returned when the lookup itself fails.
const FindClinicsFailedMessage = "An error occurred while finding clinics."

// ClinicsRouter handles clinic lookup endpoints.
type ClinicsRouter struct {
	finder ClinicFinder
	logger *slog.Logger
}

// NewClinicsRouter creates a new ClinicsRouter.
func NewClinicsRouter(finder ClinicFinder, logger *slog.Logger) *ClinicsRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClinicsRouter{finder: finder, logger: logger}
}

// Routes returns the chi router for clinic endpoints.
func (r *ClinicsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.FindClinics)
	return router
}

// FindClinics handles POST /find-clinics.
func (r *ClinicsRouter) FindClinics(w http.ResponseWriter, req *http.Request) {
	var body dto.FindClinicsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("decode body: %w: %w", clinic.ErrInvalidLocation, err), r.logger)
		return
	}

	lat, err := number(body.Location.Lat)
	if err != nil {
		middleware.WriteError(w, req, fmt.Errorf("lat: %w", err), r.logger)
		return
	}
	lng, err := number(body.Location.Lng)
	if err != nil {
		middleware.WriteError(w, req, fmt.Errorf("lng: %w", err), r.logger)
		return
	}

	ranked, err := r.finder.NearestClinics(req.Context(), lat, lng, clinic.DefaultNearest)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusInternalServerError, FindClinicsFailedMessage, err), r.logger)
		return
	}

	resp := dto.FindClinicsResponse{Clinics: make([]dto.Clinic, len(ranked))}
	for i, rc := range ranked {
		c := rc.Clinic()
		resp.Clinics[i] = dto.Clinic{
			ID:       c.ID(),
			Name:     c.Name(),
			Address:  c.Address(),
			Lat:      c.Location().Lat(),
			Lng:      c.Location().Lng(),
			Phone:    c.Phone(),
			Distance: rc.Distance(),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// number accepts only a JSON number literal.
func number(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !isNumberStart(trimmed[0]) {
		return 0, clinic.ErrInvalidLocation
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return 0, fmt.Errorf("%w: %w", clinic.ErrInvalidLocation, err)
	}
	return v, nil
}

func isNumberStart(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9')
}
