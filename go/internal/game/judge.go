package game

import (
	"math"
	"strconv"
	"strings"

	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// Answer judge: correctness matching, point computation and the streak /
// freeze bookkeeping. All pure over the session state captured at buzz time.

// Verdict is the judged outcome of one submission.
type Verdict struct {
	IsCorrect   bool
	BasePoints  int
	EarlyBonus  int
	TotalPoints int
	WasSteal    bool
}

// matchAnswer checks a raw submission against the question. Free-text answers
// compare case-insensitively after trimming; multiple-choice answers compare
// by option index.
func matchAnswer(q *models.Question, raw string) bool {
	switch q.Type {
	case models.QuestionMultipleChoice:
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		return idx == q.CorrectOption
	default:
		got := strings.ToLower(strings.TrimSpace(raw))
		if got == "" {
			return false
		}
		for _, accepted := range q.AcceptedAnswers {
			if got == strings.ToLower(strings.TrimSpace(accepted)) {
				return true
			}
		}
		return false
	}
}

// earlyBonus scales the configured max bonus by how little of the question
// had been revealed when the buzz was admitted. Strictly decreasing in
// revealedAtBuzz for a fixed total.
func earlyBonus(maxBonus, revealedAtBuzz, totalTokens int) int {
	if totalTokens <= 0 || revealedAtBuzz >= totalTokens {
		return 0
	}
	return int(math.Round(float64(maxBonus) * (1 - float64(revealedAtBuzz)/float64(totalTokens))))
}

// scoreAnswer computes the verdict for a submission. Steal answers pay a
// reduced base and never earn an early bonus since no reveal race occurred.
func scoreAnswer(rules Rules, q *models.Question, correct, isSteal bool, revealedAtBuzz int) Verdict {
	v := Verdict{IsCorrect: correct, WasSteal: isSteal}
	if !correct {
		v.TotalPoints = -rules.WrongPenalty
		return v
	}
	if isSteal {
		v.BasePoints = int(math.Round(float64(q.Points) * rules.StealPayoutFraction))
		v.TotalPoints = v.BasePoints
		return v
	}
	v.BasePoints = q.Points
	v.EarlyBonus = earlyBonus(rules.MaxBonus, revealedAtBuzz, len(q.Tokens()))
	v.TotalPoints = v.BasePoints + v.EarlyBonus
	return v
}

// applyVerdict updates the team's score and streak state. A team that hits
// the freeze threshold is frozen; a correct answer always resets the wrong
// counter and, in next-correct mode, thaws the team.
func applyVerdict(rules Rules, team *models.Team, v Verdict, questionIndex int) {
	team.Score += v.TotalPoints
	if v.IsCorrect {
		team.Streak++
		team.ConsecutiveWrong = 0
		if rules.Unfreeze == UnfreezeNextCorrect {
			team.Frozen = false
		}
		return
	}
	team.Streak = 0
	team.ConsecutiveWrong++
	if team.ConsecutiveWrong >= rules.FreezeThreshold && !team.Frozen {
		team.Frozen = true
		team.FrozenAtQuestion = questionIndex
	}
}

// thawCooldownTeams unfreezes teams whose cool-down has elapsed. Called on
// every question advance when the cooldown unfreeze mode is configured.
func thawCooldownTeams(rules Rules, s *models.Session) {
	if rules.Unfreeze != UnfreezeCooldown {
		return
	}
	for _, t := range s.Teams {
		if t.Frozen && s.QuestionIndex-t.FrozenAtQuestion >= rules.UnfreezeCooldownQuestions {
			t.Frozen = false
			t.ConsecutiveWrong = 0
		}
	}
}
