package game

import "errors"

// Reject reasons for client intents. All of these are recoverable: the intent
// is answered with an error event to the sender and session state is left
// untouched.
var (
	ErrUnknownRoom    = errors.New("unknown room")
	ErrWrongPhase     = errors.New("intent not valid in current phase")
	ErrStaleQuestion  = errors.New("stale question index")
	ErrRevealNotOpen  = errors.New("buzzing not open yet")
	ErrTeamFrozen     = errors.New("team is frozen")
	ErrBuzzerDisabled = errors.New("buzzer disabled for this question")
	ErrRaceLost       = errors.New("another team already buzzed")
	ErrStealExcluded  = errors.New("team cannot steal its own miss")
	ErrNotAnswerer    = errors.New("student is not the designated answerer")
	ErrUnknownTeam    = errors.New("unknown team")
	ErrUnknownStudent = errors.New("unknown student")
	ErrNotOnTeam      = errors.New("student is not on that team")
	ErrNotHost        = errors.New("only the host can do that")
	ErrGameRunning    = errors.New("game already started")
	ErrTooFewTeams    = errors.New("need at least two teams to start")
	ErrEmptyTeam      = errors.New("every team needs at least one member")
	ErrNoQuestions    = errors.New("room has no questions loaded")
	ErrDeadlinePassed = errors.New("answer deadline already passed")
	ErrRoomClosed     = errors.New("room is closed")
)
