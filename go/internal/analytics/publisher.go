package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Publisher delivers relayed outcome events somewhere downstream.
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

// JetStreamPublisherConfig holds configuration for the JetStream publisher.
type JetStreamPublisherConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultJetStreamPublisherConfig returns default JetStream configuration.
func DefaultJetStreamPublisherConfig() JetStreamPublisherConfig {
	return JetStreamPublisherConfig{
		URL:           nats.DefaultURL,
		StreamName:    "QUIZ_OUTCOMES",
		SubjectPrefix: "quiz.outcomes",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// JetStreamPublisher publishes outcome events to NATS JetStream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamPublisherConfig
}

// NewJetStreamPublisher connects to NATS and ensures the outcomes stream
// exists.
func NewJetStreamPublisher(config JetStreamPublisherConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(context.Background(), jetstream.StreamConfig{
		Name:     config.StreamName,
		Subjects: []string{config.SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &JetStreamPublisher{nc: nc, js: js, config: config}, nil
}

// Publish sends one outcome event to its subject.
func (p *JetStreamPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	subject := p.subjectFor(event.EventType)

	envelope := map[string]any{
		"eventId":   event.ID.String(),
		"eventType": event.EventType,
		"roomCode":  event.RoomCode,
		"timestamp": event.CreatedAt,
		"payload":   event.Payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal outcome envelope: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("subject", subject).
		Msg("outcome published")
	return nil
}

func (p *JetStreamPublisher) subjectFor(eventType string) string {
	switch eventType {
	case EventTypeAnswerOutcome:
		return p.config.SubjectPrefix + ".answer"
	case EventTypeGameOutcome:
		return p.config.SubjectPrefix + ".game"
	default:
		return p.config.SubjectPrefix + ".other"
	}
}

// Close shuts the NATS connection down.
func (p *JetStreamPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
