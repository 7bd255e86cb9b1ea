package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectResponseCreated = "surveyhub.response.created"
	SubjectWinnerDrawn     = "surveyhub.luckydraw.drawn"
)

// ResponseCreatedMessage is published after a survey response is stored.
type ResponseCreatedMessage struct {
	ResponseID   string    `json:"response_id"`
	SurveyID     string    `json:"survey_id"`
	RespondentID string    `json:"respondent_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// WinnerDrawnMessage is published after a lucky draw picks a winner.
type WinnerDrawnMessage struct {
	UserID   string    `json:"user_id"`
	PoolSize int       `json:"pool_size"`
	DrawnAt  time.Time `json:"drawn_at"`
}

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	PublishResponseCreated(ctx context.Context, msg ResponseCreatedMessage) error
	PublishWinnerDrawn(ctx context.Context, msg WinnerDrawnMessage) error
	Close()
}

type natsConnection interface {
	Publish(subj string, data []byte) error
	Close()
}

type natsPublisher struct {
	conn   natsConnection
	logger *zap.Logger
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string, logger *zap.Logger) (Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("surveyhub"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", zap.String("url", url))
	return newNATSPublisher(conn, logger), nil
}

func newNATSPublisher(conn natsConnection, logger *zap.Logger) *natsPublisher {
	return &natsPublisher{conn: conn, logger: logger}
}

func (p *natsPublisher) PublishResponseCreated(_ context.Context, msg ResponseCreatedMessage) error {
	return p.publish(SubjectResponseCreated, msg)
}

func (p *natsPublisher) PublishWinnerDrawn(_ context.Context, msg WinnerDrawnMessage) error {
	return p.publish(SubjectWinnerDrawn, msg)
}

func (p *natsPublisher) publish(subject string, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.logger.Debug("published", zap.String("subject", subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("NATS connection closed")
	}
}

// NoopPublisher drops every event; used when NATS_URL is empty.
type NoopPublisher struct{}

func (NoopPublisher) PublishResponseCreated(context.Context, ResponseCreatedMessage) error {
	return nil
}

func (NoopPublisher) PublishWinnerDrawn(context.Context, WinnerDrawnMessage) error { return nil }

func (NoopPublisher) Close() {}
