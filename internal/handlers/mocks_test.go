package handlers

import (
	"context"
	"sync"

	"github.com/genrelay/api/internal/models"
)

// stubProvider records every call and answers via generateFunc
type stubProvider struct {
	generateFunc func(ctx context.Context, profile models.Profile, parts []models.Part) (string, error)

	mu      sync.Mutex
	calls   int
	parts   []models.Part
	profile models.Profile
}

func (s *stubProvider) Generate(ctx context.Context, profile models.Profile, parts []models.Part) (string, error) {
	s.mu.Lock()
	s.calls++
	s.parts = parts
	s.profile = profile
	s.mu.Unlock()

	if s.generateFunc != nil {
		return s.generateFunc(ctx, profile, parts)
	}
	return "ok", nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
