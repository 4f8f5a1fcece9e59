package models

import (
	"github.com/google/uuid"
)

// Team is one competing team inside a session. Membership is fixed once the
// game is running; score and streak bookkeeping belong to the answer judge.
type Team struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	MemberIDs        []string  `json:"member_ids"`
	Score            int       `json:"score"`
	Streak           int       `json:"streak"`
	ConsecutiveWrong int       `json:"consecutive_wrong"`
	Frozen           bool      `json:"frozen"`
	FrozenAtQuestion int       `json:"-"`
}

// HasMember reports whether the student is on this team.
func (t *Team) HasMember(studentID string) bool {
	for _, id := range t.MemberIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// RemoveMember drops a student from the team if present.
func (t *Team) RemoveMember(studentID string) {
	for i, id := range t.MemberIDs {
		if id == studentID {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			return
		}
	}
}

// Student is an ephemeral per-session participant. Identity comes from the
// join intent; the engine does not re-validate it.
type Student struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	TeamID *uuid.UUID `json:"team_id,omitempty"`
}
