package rooms

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/mcdev12/quizbuzz/go/internal/models"
	"github.com/rs/zerolog/log"
)

// QuestionSource is the read-only task store the engine loads question sets
// from at room creation.
type QuestionSource interface {
	GetQuestionSet(ctx context.Context, setID string) ([]models.Question, error)
}

// Manager owns the live rooms of one process. Rooms share nothing with each
// other; the manager only maps codes to room actors.
type Manager struct {
	rules     game.Rules
	clock     clockwork.Clock
	sink      game.EventSink
	outcomes  game.OutcomeSink
	questions QuestionSource

	mu    sync.RWMutex
	rooms map[string]*game.Room
}

// NewManager creates a room manager. A nil outcomes sink disables analytics.
func NewManager(rules game.Rules, clock clockwork.Clock, sink game.EventSink, outcomes game.OutcomeSink, questions QuestionSource) *Manager {
	return &Manager{
		rules:     rules,
		clock:     clock,
		sink:      sink,
		outcomes:  outcomes,
		questions: questions,
		rooms:     make(map[string]*game.Room),
	}
}

// CreateRoom allocates a fresh code, loads the question set and starts the
// room's processing loop.
func (m *Manager) CreateRoom(ctx context.Context, questionSetID string) (*game.Room, error) {
	questions, err := m.questions.GetQuestionSet(ctx, questionSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question set %s: %w", questionSetID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var code string
	for {
		code, err = NewRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}

	room := game.NewRoom(code, questions, m.rules, m.clock, m.sink, m.outcomes)
	room.OnClosed = m.release
	m.rooms[code] = room
	go room.Run()

	log.Info().
		Str("room", code).
		Str("question_set", questionSetID).
		Int("questions", len(questions)).
		Msg("room created")
	return room, nil
}

// Get looks up a live room by code, case-insensitively.
func (m *Manager) Get(code string) (*game.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[NormalizeCode(code)]
	if !ok {
		return nil, game.ErrUnknownRoom
	}
	return room, nil
}

// Submit routes an intent to a room's queue.
func (m *Manager) Submit(code, from string, intent game.Intent) error {
	room, err := m.Get(code)
	if err != nil {
		return err
	}
	return room.Submit(from, intent)
}

// ActiveRooms returns how many rooms are live.
func (m *Manager) ActiveRooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown closes every live room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*game.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}

func (m *Manager) release(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
	log.Info().Str("room", code).Msg("room released")
}
