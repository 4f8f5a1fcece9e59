package game

import (
	"github.com/google/uuid"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// Steal coordinator: decides whether a wrong answer reopens the question to
// the remaining teams.

// stealEligible reports whether any team other than wrongTeamID could win a
// steal race: non-frozen, with at least one member whose buzzer is still
// enabled.
func stealEligible(s *models.Session, wrongTeamID uuid.UUID) bool {
	for _, t := range s.Teams {
		if t.ID == wrongTeamID || t.Frozen {
			continue
		}
		for _, id := range t.MemberIDs {
			if _, disabled := s.DisabledBuzzerIDs[id]; !disabled {
				return true
			}
		}
	}
	return false
}

// canOpenSteal reports whether a wrong answer reopens the question: steals
// must remain and an eligible team must exist. The caller decrements
// StealsRemaining when it opens the sub-phase.
func canOpenSteal(s *models.Session, wrongTeamID uuid.UUID) bool {
	return s.StealsRemaining > 0 && stealEligible(s, wrongTeamID)
}
