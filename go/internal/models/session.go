package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle stage of a session's state machine.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseQuestion  Phase = "question"
	PhaseAnswering Phase = "answering"
	PhaseResults   Phase = "results"
	PhaseFinished  Phase = "finished"
)

// Session is the canonical state of one room. It is owned exclusively by the
// room's processing loop and mutated only through phase transitions.
type Session struct {
	RoomCode           string              `json:"room_code"`
	Phase              Phase               `json:"phase"`
	QuestionIndex      int                 `json:"question_index"`
	RevealedTokenCount int                 `json:"revealed_token_count"`
	BuzzedTeamID       *uuid.UUID          `json:"buzzed_team_id,omitempty"`
	AnsweringStudentID string              `json:"answering_student_id,omitempty"`
	IsStealPhase       bool                `json:"is_steal_phase"`
	StealsRemaining    int                 `json:"steals_remaining"`
	WrongTeamID        *uuid.UUID          `json:"wrong_team_id,omitempty"`
	DisabledBuzzerIDs  map[string]struct{} `json:"-"`
	AnswerDeadline     *time.Time          `json:"answer_deadline,omitempty"`
	RevealCountAtBuzz  int                 `json:"-"`
	Teams              []*Team             `json:"teams"`
	Students           map[string]*Student `json:"-"`
	Questions          []Question          `json:"-"`
	HostConnected      bool                `json:"-"`
}

// CurrentQuestion returns the question the session is on, or nil when the
// index is out of range.
func (s *Session) CurrentQuestion() *Question {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.QuestionIndex]
}

// TeamByID looks a team up by id.
func (s *Session) TeamByID(id uuid.UUID) *Team {
	for _, t := range s.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TeamOfStudent returns the team a student belongs to, or nil.
func (s *Session) TeamOfStudent(studentID string) *Team {
	for _, t := range s.Teams {
		if t.HasMember(studentID) {
			return t
		}
	}
	return nil
}

// DisabledBuzzerList returns the disabled buzzer set as a slice for event
// payloads.
func (s *Session) DisabledBuzzerList() []string {
	ids := make([]string, 0, len(s.DisabledBuzzerIDs))
	for id := range s.DisabledBuzzerIDs {
		ids = append(ids, id)
	}
	return ids
}
