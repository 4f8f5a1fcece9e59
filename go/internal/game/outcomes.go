package game

import (
	"time"

	"github.com/google/uuid"
)

// Terminal outcomes emitted to the analytics sink. The engine only writes to
// the sink; it never reads back.

// AnswerOutcome is recorded once per judged answer, including auto-submitted
// expiries.
type AnswerOutcome struct {
	RoomCode      string    `json:"room_code"`
	QuestionIndex int       `json:"question_index"`
	QuestionID    string    `json:"question_id"`
	TeamID        uuid.UUID `json:"team_id"`
	TeamName      string    `json:"team_name"`
	StudentID     string    `json:"student_id"`
	IsCorrect     bool      `json:"is_correct"`
	WasSteal      bool      `json:"was_steal"`
	AutoSubmitted bool      `json:"auto_submitted"`
	PointsAwarded int       `json:"points_awarded"`
	NewScore      int       `json:"new_score"`
	JudgedAt      time.Time `json:"judged_at"`
}

// TeamResult is one team's final line in a game outcome.
type TeamResult struct {
	TeamID uuid.UUID `json:"team_id"`
	Name   string    `json:"name"`
	Score  int       `json:"score"`
}

// GameOutcome is recorded once when a session reaches the finished phase.
type GameOutcome struct {
	RoomCode        string       `json:"room_code"`
	QuestionsPlayed int          `json:"questions_played"`
	Teams           []TeamResult `json:"teams"`
	FinishedAt      time.Time    `json:"finished_at"`
}

// OutcomeSink receives terminal outcomes. Implementations must not block the
// caller; the room loop treats recording as fire-and-forget.
type OutcomeSink interface {
	RecordAnswer(outcome AnswerOutcome)
	RecordGame(outcome GameOutcome)
}

// NopOutcomeSink discards outcomes; used when analytics is not configured.
type NopOutcomeSink struct{}

func (NopOutcomeSink) RecordAnswer(AnswerOutcome) {}
func (NopOutcomeSink) RecordGame(GameOutcome)     {}
