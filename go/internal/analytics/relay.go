package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// RelayConfig holds configuration for the outbox relay.
type RelayConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int32
}

// DefaultRelayConfig returns default relay configuration.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		NotifyChannel:    "quiz_outbox_events",
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Relay drains the outcome outbox to the publisher. It wakes on Postgres
// NOTIFY and falls back to interval polling so nothing is lost when a
// notification is dropped.
type Relay struct {
	app       *App
	listener  *pq.Listener
	publisher Publisher
	cfg       RelayConfig
}

// NewRelay opens the LISTEN connection.
func NewRelay(app *App, publisher Publisher, cfg RelayConfig) (*Relay, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("relay listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for outbox notifications")

	return &Relay{
		app:       app,
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// Start runs the relay loop until the context is canceled.
func (r *Relay) Start(ctx context.Context) error {
	log.Info().
		Str("channel", r.cfg.NotifyChannel).
		Dur("ping_interval", r.cfg.PingInterval).
		Dur("fallback_interval", r.cfg.FallbackInterval).
		Msg("outbox relay started")

	pingTicker := time.NewTicker(r.cfg.PingInterval)
	fallbackTicker := time.NewTicker(r.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay shutting down")
			return r.Stop()
		case note := <-r.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost; the
				// fallback poll covers anything missed while reconnecting
				continue
			}
			if err := r.drain(ctx); err != nil {
				log.Error().Err(err).Msg("failed to drain outbox after notification")
			}
		case <-fallbackTicker.C:
			if err := r.drain(ctx); err != nil {
				log.Error().Err(err).Msg("failed to drain outbox on fallback poll")
			}
		case <-pingTicker.C:
			if err := r.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// Stop closes the LISTEN connection.
func (r *Relay) Stop() error {
	return r.listener.Close()
}

func (r *Relay) drain(ctx context.Context) error {
	return r.app.ProcessUnsent(ctx, r.cfg.BatchSize, func(event OutboxEvent) error {
		return r.publishWithRetry(ctx, event)
	})
}

func (r *Relay) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}
