package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/genrelay/api/internal/metrics"
	"github.com/genrelay/api/internal/models"
	"github.com/genrelay/api/internal/requestid"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/genrelay/api/internal/generator")

// ErrProvider is matched by every failure of the provider call
var ErrProvider = errors.New("provider error")

// ProviderError wraps the underlying cause of a failed generation
type ProviderError struct {
	Profile models.ProfileKind
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generate (%s): %v", e.Profile, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrProvider
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Provider performs the single external generation call
type Provider interface {
	Generate(ctx context.Context, profile models.Profile, parts []models.Part) (string, error)
}

// Publisher receives an event after each provider call
type Publisher interface {
	PublishGeneration(ctx context.Context, ev models.GenerationEvent) error
}

// Generator binds a provider to the profile table. It holds no mutable state
// and is safe for concurrent use.
type Generator struct {
	provider  Provider
	logger    *zap.Logger
	timeout   time.Duration
	metrics   *metrics.Metrics
	publisher Publisher
}

// Option configures a Generator
type Option func(*Generator)

// WithTimeout bounds each provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithMetrics records provider latency and outcome
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithPublisher publishes a GenerationEvent after each call
func WithPublisher(p Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// New creates a Generator around provider
func New(provider Provider, logger *zap.Logger, opts ...Option) (*Generator, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{provider: provider, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// BuildParts returns the provider input: the prompt first, then each attachment in order
func BuildParts(prompt string, attachments []models.Attachment) []models.Part {
	parts := make([]models.Part, 0, len(attachments)+1)
	parts = append(parts, models.TextPart(prompt))
	for _, a := range attachments {
		parts = append(parts, models.AttachmentPart(a))
	}
	return parts
}

// Generate runs one provider call with the profile registered for kind
func (g *Generator) Generate(ctx context.Context, kind models.ProfileKind, prompt string, attachments []models.Attachment) (*models.GenerationResult, error) {
	profile, ok := models.LookupProfile(kind)
	if !ok {
		return nil, &ProviderError{Profile: kind, Err: fmt.Errorf("unknown profile %q", kind)}
	}

	ctx, span := tracer.Start(ctx, "Generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("genrelay.profile", string(kind)),
		attribute.String("genrelay.model", profile.Model),
		attribute.Int("genrelay.attachments", len(attachments)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := BuildParts(prompt, attachments)

	start := time.Now()
	text, err := g.provider.Generate(ctx, profile, parts)
	elapsed := time.Since(start)

	if g.metrics != nil {
		g.metrics.ObserveProvider(string(kind), err == nil, elapsed)
	}
	g.publish(ctx, profile, prompt, len(attachments), err == nil, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return nil, &ProviderError{Profile: kind, Err: err}
	}

	g.logger.Debug("generation completed",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("profile", string(kind)),
		zap.Int("parts", len(parts)),
		zap.Duration("latency", elapsed),
	)

	return &models.GenerationResult{Text: text}, nil
}

func (g *Generator) publish(ctx context.Context, profile models.Profile, prompt string, attachments int, success bool, elapsed time.Duration) {
	if g.publisher == nil {
		return
	}

	ev := models.GenerationEvent{
		ID:          uuid.New(),
		RequestID:   requestid.FromContext(ctx),
		Profile:     profile.Name,
		Model:       profile.Model,
		PromptChars: len([]rune(prompt)),
		Attachments: attachments,
		Success:     success,
		LatencyMS:   elapsed.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}
	// The request context may already be past its deadline.
	if err := g.publisher.PublishGeneration(context.WithoutCancel(ctx), ev); err != nil {
		g.logger.Warn("failed to publish generation event", zap.Error(err))
	}
}
