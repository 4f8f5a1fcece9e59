package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"
)

// Repository persists outcome events to the quiz_outbox table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository on a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertOutboxQuery = `
INSERT INTO quiz_outbox (id, room_code, event_type, payload, metadata)
VALUES ($1, $2, $3, $4, $5)`

// InsertOutcome writes one unsent outcome row.
func (r *Repository) InsertOutcome(ctx context.Context, roomCode, eventType string, payload, metadata []byte) error {
	meta := pqtype.NullRawMessage{RawMessage: metadata, Valid: len(metadata) > 0}
	_, err := r.pool.Exec(ctx, insertOutboxQuery, uuid.New(), roomCode, eventType, payload, meta)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

const fetchUnsentQuery = `
SELECT id, room_code, event_type, payload, created_at
FROM quiz_outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1`

// FetchUnsent returns the oldest unsent events, oldest first.
func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.pool.Query(ctx, fetchUnsentQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.RoomCode, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox rows: %w", err)
	}
	return events, nil
}

const markSentQuery = `
UPDATE quiz_outbox SET sent_at = now() WHERE id = $1`

// MarkSent stamps an event as relayed.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, markSentQuery, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}
