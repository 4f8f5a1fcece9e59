package game

import (
	"github.com/google/uuid"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// Buzz arbiter: the single point of truth for who answers. It is a pure
// decision over the session plus one intent; the first-writer-wins guarantee
// comes from the room queue's processing order, not from locks.

// tryBuzz evaluates one buzz attempt against the current session state.
// A nil error means the buzz is admitted; the caller performs the mutation.
func tryBuzz(s *models.Session, teamID uuid.UUID, studentID string) error {
	if s.Phase != models.PhaseQuestion {
		return ErrWrongPhase
	}
	if s.RevealedTokenCount < 1 {
		return ErrRevealNotOpen
	}
	team := s.TeamByID(teamID)
	if team == nil {
		return ErrUnknownTeam
	}
	if !team.HasMember(studentID) {
		return ErrNotOnTeam
	}
	if team.Frozen {
		return ErrTeamFrozen
	}
	if _, disabled := s.DisabledBuzzerIDs[studentID]; disabled {
		return ErrBuzzerDisabled
	}
	if s.BuzzedTeamID != nil {
		return ErrRaceLost
	}
	if s.IsStealPhase && s.WrongTeamID != nil && *s.WrongTeamID == teamID {
		return ErrStealExcluded
	}
	return nil
}
