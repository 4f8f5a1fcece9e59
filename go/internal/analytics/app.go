package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository.
type OutboxRepository interface {
	InsertOutcome(ctx context.Context, roomCode, eventType string, payload, metadata []byte) error
	FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// App records engine outcomes into the outbox and hands unsent rows to the
// relay. It implements game.OutcomeSink; recording must never block a room
// loop, so inserts run on their own goroutine.
type App struct {
	repo         OutboxRepository
	writeTimeout time.Duration
}

// NewApp creates a new analytics App.
func NewApp(repo OutboxRepository) *App {
	return &App{
		repo:         repo,
		writeTimeout: 5 * time.Second,
	}
}

// RecordAnswer implements game.OutcomeSink.
func (a *App) RecordAnswer(outcome game.AnswerOutcome) {
	go a.insert(outcome.RoomCode, EventTypeAnswerOutcome, outcome)
}

// RecordGame implements game.OutcomeSink.
func (a *App) RecordGame(outcome game.GameOutcome) {
	go a.insert(outcome.RoomCode, EventTypeGameOutcome, outcome)
}

func (a *App) insert(roomCode, eventType string, outcome any) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal outcome")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
	defer cancel()

	if err := a.repo.InsertOutcome(ctx, roomCode, eventType, payload, nil); err != nil {
		log.Error().
			Err(err).
			Str("room", roomCode).
			Str("event_type", eventType).
			Msg("failed to record outcome")
		return
	}
	log.Debug().
		Str("room", roomCode).
		Str("event_type", eventType).
		Msg("outcome recorded")
}

// ProcessUnsent relays a batch of unsent events through the processor,
// marking each one sent on success.
func (a *App) ProcessUnsent(ctx context.Context, batchSize int32, processor func(event OutboxEvent) error) error {
	events, err := a.repo.FetchUnsent(ctx, batchSize)
	if err != nil {
		return err
	}

	processed := 0
	failed := 0
	for _, event := range events {
		if err := processor(event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to relay outcome event")
			failed++
			continue
		}
		if err := a.repo.MarkSent(ctx, event.ID); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Msg("failed to mark outcome event as sent")
			failed++
			continue
		}
		processed++
	}

	if processed > 0 || failed > 0 {
		log.Info().
			Int("processed", processed).
			Int("failed", failed).
			Msg("relayed outcome batch")
	}
	return nil
}
