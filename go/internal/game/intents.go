package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Intent is a client request funneled through the room's serialized queue.
// Whoever the queue processes first wins any race; client timestamps are
// never consulted.
type Intent interface {
	intentType() string
}

// JoinRoom registers a student (or re-attaches the host) to the session.
type JoinRoom struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	IsHost      bool   `json:"is_host"`
}

// TeamSetup describes one team in a manual create-teams intent.
type TeamSetup struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// CreateTeams builds the team roster before the game starts. When Auto is
// true the joined students are shuffled and dealt round-robin into NumTeams
// teams; otherwise Teams is used verbatim.
type CreateTeams struct {
	Auto     bool        `json:"auto"`
	NumTeams int         `json:"num_teams,omitempty"`
	Teams    []TeamSetup `json:"teams,omitempty"`
}

// AssignStudent moves one student onto a team (manual team setup). The move
// is idempotent: the student is removed from every team before being added.
type AssignStudent struct {
	StudentID string    `json:"student_id"`
	TeamID    uuid.UUID `json:"team_id"`
}

// StartGame begins play. Requires at least two non-empty teams.
type StartGame struct{}

// StartQuestion restarts the reveal driver for the current question. Used by
// a reconnecting host; a mismatched index is a soft no-op.
type StartQuestion struct {
	QuestionIndex int `json:"question_index"`
}

// BuzzIn is a team's attempt to win the buzz race.
type BuzzIn struct {
	TeamID        uuid.UUID `json:"team_id"`
	StudentID     string    `json:"student_id"`
	QuestionIndex int       `json:"question_index"`
}

// SubmitAnswer is the designated answerer's submission.
type SubmitAnswer struct {
	TeamID        uuid.UUID `json:"team_id"`
	StudentID     string    `json:"student_id"`
	Answer        string    `json:"answer"`
	QuestionIndex int       `json:"question_index"`
}

// NextQuestion advances past the results phase.
type NextQuestion struct{}

// EndGame finishes the session immediately.
type EndGame struct{}

// LeaveRoom reports a dropped connection. Host departures start the
// grace-period teardown clock; student departures only stop future intents.
type LeaveRoom struct {
	StudentID string `json:"student_id"`
	IsHost    bool   `json:"is_host"`
}

func (JoinRoom) intentType() string      { return "join-room" }
func (CreateTeams) intentType() string   { return "create-teams" }
func (AssignStudent) intentType() string { return "assign-student" }
func (StartGame) intentType() string     { return "start-game" }
func (StartQuestion) intentType() string { return "start-question" }
func (BuzzIn) intentType() string        { return "buzz-in" }
func (SubmitAnswer) intentType() string  { return "submit-answer" }
func (NextQuestion) intentType() string  { return "next-question" }
func (EndGame) intentType() string       { return "end-game" }
func (LeaveRoom) intentType() string     { return "leave-room" }

// DecodeIntent parses a wire intent envelope into a typed intent.
func DecodeIntent(intentType string, payload json.RawMessage) (Intent, error) {
	switch intentType {
	case "join-room":
		return decodeIntent[JoinRoom](payload)
	case "create-teams":
		return decodeIntent[CreateTeams](payload)
	case "assign-student":
		return decodeIntent[AssignStudent](payload)
	case "start-game":
		return StartGame{}, nil
	case "start-question":
		return decodeIntent[StartQuestion](payload)
	case "buzz-in":
		return decodeIntent[BuzzIn](payload)
	case "submit-answer":
		return decodeIntent[SubmitAnswer](payload)
	case "next-question":
		return NextQuestion{}, nil
	case "end-game":
		return EndGame{}, nil
	case "leave-room":
		return decodeIntent[LeaveRoom](payload)
	default:
		return nil, fmt.Errorf("unknown intent type %q", intentType)
	}
}

func decodeIntent[T Intent](payload json.RawMessage) (Intent, error) {
	var in T
	if len(payload) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, err
	}
	return in, nil
}
