package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/genrelay/api/internal/models"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectGenerationCompleted carries one models.GenerationEvent per provider call
const SubjectGenerationCompleted = "genrelay.generation.completed"

// Publisher sends generation events to NATS
type Publisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials natsURL with short timeouts so a missing broker does not stall startup
func Connect(natsURL string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("genrelay-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// NewPublisher wraps an existing connection
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{conn: nc, logger: logger}
}

// PublishGeneration marshals ev and publishes it on SubjectGenerationCompleted
func (p *Publisher) PublishGeneration(_ context.Context, ev models.GenerationEvent) error {
	if p == nil || p.conn == nil || p.conn.IsClosed() {
		return nats.ErrConnectionClosed
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal generation event: %w", err)
	}
	return p.conn.Publish(SubjectGenerationCompleted, payload)
}

// Status reports the connection state for the deep health check
func (p *Publisher) Status() string {
	if p == nil || p.conn == nil {
		return "not configured"
	}
	if p.conn.IsConnected() {
		return "healthy"
	}
	return "unhealthy: " + p.conn.Status().String()
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.conn.Close()
	}
}
