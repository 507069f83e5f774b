package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/domain/knowledge"
)

// fakeEmbedder returns the mapped vector for known texts and fallback
// otherwise.
type fakeEmbedder struct {
	vectors  map[string][]float64
	fallback []float64
	err      error
	calls    atomic.Int64
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	result := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			result[i] = v
		} else {
			result[i] = f.fallback
		}
	}
	return result, nil
}

// memoryKnowledgeStore implements knowledge.Store in memory.
type memoryKnowledgeStore struct {
	mu      sync.Mutex
	base    *knowledge.Base
	loadErr error
	saveErr error
	saves   int
}

func (s *memoryKnowledgeStore) Load(_ context.Context) (knowledge.Base, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return knowledge.Base{}, s.loadErr
	}
	if s.base == nil {
		return knowledge.Base{}, knowledge.ErrNotFound
	}
	return *s.base, nil
}

func (s *memoryKnowledgeStore) Save(_ context.Context, base knowledge.Base) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.base = &base
	s.saves++
	return nil
}

// memoryClinicStore implements clinic.Store in memory.
type memoryClinicStore struct {
	mu      sync.Mutex
	clinics []clinic.Clinic
	err     error
}

func (s *memoryClinicStore) FindAll(_ context.Context) ([]clinic.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]clinic.Clinic, len(s.clinics))
	copy(out, s.clinics)
	return out, nil
}

func (s *memoryClinicStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.clinics)), s.err
}

func (s *memoryClinicStore) SeedIfEmpty(_ context.Context, clinics []clinic.Clinic) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if len(s.clinics) > 0 || len(clinics) == 0 {
		return false, nil
	}
	s.clinics = append(s.clinics, clinics...)
	return true, nil
}

var errBoom = errors.New("boom")
