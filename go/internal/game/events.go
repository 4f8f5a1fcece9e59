package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// EventType identifies an outbound state-change event.
type EventType string

const (
	EventLobbyUpdate      EventType = "lobby-update"
	EventTeamsCreated     EventType = "teams-created"
	EventGameStarted      EventType = "game-started"
	EventWordRevealed     EventType = "word-revealed"
	EventTeamBuzzed       EventType = "team-buzzed"
	EventStudentAnswering EventType = "student-answering"
	EventAnswerResult     EventType = "answer-result"
	EventStealPhase       EventType = "steal-phase"
	EventNextQuestion     EventType = "next-question"
	EventGameFinished     EventType = "game-finished"
	EventRoomState        EventType = "room-state"
	EventError            EventType = "error"
)

// Event is the envelope broadcast to websocket clients. Data holds one of the
// payload structs below and is marshaled by the gateway.
type Event struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"room_code"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// EventSink receives the events a room emits. The gateway's connection
// manager is the production implementation.
type EventSink interface {
	Broadcast(roomCode string, event Event)
	SendToStudent(roomCode, studentID string, event Event)
}

// LobbyUpdatePayload mirrors the joined roster before and during team setup.
type LobbyUpdatePayload struct {
	Students []*models.Student `json:"students"`
	Teams    []*models.Team    `json:"teams"`
}

// TeamsCreatedPayload announces the team roster.
type TeamsCreatedPayload struct {
	Teams []*models.Team `json:"teams"`
}

// GameStartedPayload marks the lobby → question transition.
type GameStartedPayload struct {
	QuestionIndex  int `json:"question_index"`
	TotalQuestions int `json:"total_questions"`
}

// WordRevealedPayload discloses one more token of the question text.
type WordRevealedPayload struct {
	Word       string `json:"word"`
	Index      int    `json:"index"`
	TotalWords int    `json:"total_words"`
}

// TeamBuzzedPayload announces the buzz-race winner. The deadline is an
// absolute timestamp so client countdowns are latency-independent; the
// engine's own expiry is what auto-submits.
type TeamBuzzedPayload struct {
	TeamID             uuid.UUID `json:"team_id"`
	TeamName           string    `json:"team_name"`
	StudentID          string    `json:"student_id"`
	StudentName        string    `json:"student_name"`
	FullQuestion       string    `json:"full_question"`
	Options            []string  `json:"options,omitempty"`
	DisabledBuzzers    []string  `json:"disabled_buzzers"`
	AnswerDeadline     time.Time `json:"answer_deadline"`
	AnswerTimeLimitSec int       `json:"answer_time_limit_sec"`
}

// StudentAnsweringPayload designates the single student who may answer.
type StudentAnsweringPayload struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	TeamID      uuid.UUID `json:"team_id"`
	TeamName    string    `json:"team_name"`
}

// AnswerResultPayload reports a judged answer.
type AnswerResultPayload struct {
	TeamID            uuid.UUID `json:"team_id"`
	IsCorrect         bool      `json:"is_correct"`
	BasePointsAwarded int       `json:"base_points_awarded"`
	EarlyBonusAwarded int       `json:"early_bonus_awarded"`
	PointsAwarded     int       `json:"points_awarded"`
	NewScore          int       `json:"new_score"`
	Streak            int       `json:"streak"`
	CorrectAnswer     string    `json:"correct_answer,omitempty"`
	DisabledBuzzers   []string  `json:"disabled_buzzers"`
	WasSteal          bool      `json:"was_steal"`
	AutoSubmitted     bool      `json:"auto_submitted"`
	TeamFrozen        bool      `json:"team_frozen"`
}

// StealPhasePayload reopens buzzing to the remaining eligible teams.
type StealPhasePayload struct {
	WrongTeamID     uuid.UUID `json:"wrong_team_id"`
	RemainingSteals int       `json:"remaining_steals"`
	DisabledBuzzers []string  `json:"disabled_buzzers"`
}

// NextQuestionPayload announces the advance to a fresh question.
type NextQuestionPayload struct {
	QuestionIndex  int `json:"question_index"`
	TotalQuestions int `json:"total_questions"`
}

// GameFinishedPayload carries the final standings.
type GameFinishedPayload struct {
	Teams []*models.Team `json:"teams"`
}

// RoomStatePayload is the full snapshot sent to a reconnecting participant.
// It carries everything a client needs to redraw mid-game, including the
// roster and the spent buzzers, which the session struct keeps off the wire.
type RoomStatePayload struct {
	RoomCode           string            `json:"room_code"`
	Phase              models.Phase      `json:"phase"`
	QuestionIndex      int               `json:"question_index"`
	TotalQuestions     int               `json:"total_questions"`
	RevealedTokenCount int               `json:"revealed_token_count"`
	BuzzedTeamID       *uuid.UUID        `json:"buzzed_team_id,omitempty"`
	AnsweringStudentID string            `json:"answering_student_id,omitempty"`
	IsStealPhase       bool              `json:"is_steal_phase"`
	StealsRemaining    int               `json:"steals_remaining"`
	AnswerDeadline     *time.Time        `json:"answer_deadline,omitempty"`
	Teams              []*models.Team    `json:"teams"`
	Students           []*models.Student `json:"students"`
	DisabledBuzzers    []string          `json:"disabled_buzzers"`
}

// ErrorPayload is surfaced to the originating client only.
type ErrorPayload struct {
	Message string `json:"message"`
}

func newEvent(roomCode string, eventType EventType, now time.Time, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		RoomCode:  roomCode,
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}
}
