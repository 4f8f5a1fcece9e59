package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// Team registry: constructs and edits the team roster while the session is
// still in the lobby. Membership is immutable once the game is running.

// autoBalanceTeams shuffles the joined students and deals them round-robin
// into numTeams teams. Every team ends with at least one member as long as
// there are at least numTeams students.
func autoBalanceTeams(s *models.Session, numTeams int) ([]*models.Team, error) {
	if s.Phase != models.PhaseLobby {
		return nil, ErrGameRunning
	}
	if numTeams < 2 {
		return nil, ErrTooFewTeams
	}
	if len(s.Students) < numTeams {
		return nil, fmt.Errorf("%w: %d students for %d teams", ErrEmptyTeam, len(s.Students), numTeams)
	}

	ids := make([]string, 0, len(s.Students))
	for id := range s.Students {
		ids = append(ids, id)
	}
	// Map order is random but not uniformly so; sort then shuffle for a fair
	// deal that is also reproducible under a seeded source in tests.
	sort.Strings(ids)
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	teams := make([]*models.Team, numTeams)
	for i := range teams {
		teams[i] = &models.Team{
			ID:   uuid.New(),
			Name: fmt.Sprintf("Team %d", i+1),
		}
	}
	for i, id := range ids {
		teams[i%numTeams].MemberIDs = append(teams[i%numTeams].MemberIDs, id)
	}
	applyTeamAssignments(s, teams)
	return teams, nil
}

// buildTeams constructs the roster from an explicit host layout. Students
// named on multiple teams land on the last team that lists them.
func buildTeams(s *models.Session, setups []TeamSetup) ([]*models.Team, error) {
	if s.Phase != models.PhaseLobby {
		return nil, ErrGameRunning
	}
	if len(setups) < 2 {
		return nil, ErrTooFewTeams
	}

	teams := make([]*models.Team, 0, len(setups))
	seen := make(map[string]*models.Team)
	for _, setup := range setups {
		team := &models.Team{
			ID:   uuid.New(),
			Name: setup.Name,
		}
		for _, id := range setup.MemberIDs {
			if _, ok := s.Students[id]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownStudent, id)
			}
			if prev, ok := seen[id]; ok {
				prev.RemoveMember(id)
			}
			seen[id] = team
			team.MemberIDs = append(team.MemberIDs, id)
		}
		teams = append(teams, team)
	}
	applyTeamAssignments(s, teams)
	return teams, nil
}

// assignStudent moves one student onto a team. Idempotent: the student is
// removed from every team before the add, so no student is ever on two teams.
func assignStudent(s *models.Session, studentID string, teamID uuid.UUID) error {
	if s.Phase != models.PhaseLobby {
		return ErrGameRunning
	}
	student, ok := s.Students[studentID]
	if !ok {
		return ErrUnknownStudent
	}
	target := s.TeamByID(teamID)
	if target == nil {
		return ErrUnknownTeam
	}
	for _, t := range s.Teams {
		t.RemoveMember(studentID)
	}
	target.MemberIDs = append(target.MemberIDs, studentID)
	student.TeamID = &target.ID
	return nil
}

// applyTeamAssignments installs the roster on the session and stamps each
// student with their team id.
func applyTeamAssignments(s *models.Session, teams []*models.Team) {
	s.Teams = teams
	for _, student := range s.Students {
		student.TeamID = nil
	}
	for _, t := range teams {
		for _, id := range t.MemberIDs {
			if student, ok := s.Students[id]; ok {
				teamID := t.ID
				student.TeamID = &teamID
			}
		}
	}
}

// validateStartable checks the roster and question set before the game starts.
func validateStartable(s *models.Session) error {
	if len(s.Teams) < 2 {
		return ErrTooFewTeams
	}
	for _, t := range s.Teams {
		if len(t.MemberIDs) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyTeam, t.Name)
		}
	}
	if len(s.Questions) == 0 {
		return ErrNoQuestions
	}
	return nil
}
