package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aar-healthcare/medbot/domain/clinic"
)

// Clinics seeds and queries the clinic directory.
type Clinics struct {
	store  clinic.Store
	closed *atomic.Bool
	logger *slog.Logger
}

// NewClinics creates a new Clinics service.
func NewClinics(store clinic.Store, closed *atomic.Bool, logger *slog.Logger) *Clinics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clinics{store: store, closed: closed, logger: logger}
}

// Seed fills an empty directory with clinics. A populated directory is
// left untouched.
func (s *Clinics) Seed(ctx context.Context, clinics []clinic.Clinic) error {
	seeded, err := s.store.SeedIfEmpty(ctx, clinics)
	if err != nil {
		return fmt.Errorf("seed clinics: %w", err)
	}
	if seeded {
		s.logger.Info("seeded clinic directory", slog.Int("clinics", len(clinics)))
		return nil
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count clinics: %w", err)
	}
	s.logger.Debug("clinic directory already populated", slog.Int64("clinics", n))
	return nil
}

// Nearest returns the k clinics closest to (lat, lng), nearest first.
func (s *Clinics) Nearest(ctx context.Context, lat, lng float64, k int) ([]clinic.Ranked, error) {
	if s.closed != nil && s.closed.Load() {
		return nil, ErrClientClosed
	}

	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinics: %w", err)
	}

	ranked := clinic.Nearest(all, clinic.NewLocation(lat, lng), k)
	s.logger.Debug("ranked clinics",
		slog.Float64("lat", lat),
		slog.Float64("lng", lng),
		slog.Int("candidates", len(all)),
		slog.Int("returned", len(ranked)),
	)
	return ranked, nil
}
