package generator

import (
	"context"
	"sync"

	"github.com/genrelay/api/internal/models"
)

type mockProvider struct {
	generateFunc func(ctx context.Context, profile models.Profile, parts []models.Part) (string, error)

	mu        sync.Mutex
	calls     int
	lastParts []models.Part
	lastProf  models.Profile
}

func (m *mockProvider) Generate(ctx context.Context, profile models.Profile, parts []models.Part) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastParts = parts
	m.lastProf = profile
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(ctx, profile, parts)
	}
	return "ok", nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []models.GenerationEvent
	err    error
}

func (m *mockPublisher) PublishGeneration(_ context.Context, ev models.GenerationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}
