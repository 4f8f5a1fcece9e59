package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

func TestMatchAnswerFreeText(t *testing.T) {
	q := &models.Question{
		Type:            models.QuestionFreeText,
		Text:            "What is the capital of France",
		AcceptedAnswers: []string{"Paris", "paris france"},
	}

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"exact match", "Paris", true},
		{"case insensitive", "pArIs", true},
		{"surrounding whitespace", "  paris  ", true},
		{"second accepted answer", "PARIS FRANCE", true},
		{"wrong answer", "London", false},
		{"empty submission", "", false},
		{"whitespace only", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchAnswer(q, tt.raw); got != tt.want {
				t.Errorf("matchAnswer(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatchAnswerMultipleChoice(t *testing.T) {
	q := &models.Question{
		Type:          models.QuestionMultipleChoice,
		Text:          "Which planet is largest",
		Options:       []string{"Mars", "Jupiter", "Venus"},
		CorrectOption: 1,
	}

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"correct index", "1", true},
		{"correct index with whitespace", " 1 ", true},
		{"wrong index", "0", false},
		{"not a number", "Jupiter", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchAnswer(q, tt.raw); got != tt.want {
				t.Errorf("matchAnswer(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEarlyBonus(t *testing.T) {
	tests := []struct {
		name           string
		maxBonus       int
		revealedAtBuzz int
		totalTokens    int
		want           int
	}{
		{"nothing revealed", 10, 0, 10, 10},
		{"half revealed", 10, 5, 10, 5},
		{"one token left", 10, 9, 10, 1},
		{"fully revealed", 10, 10, 10, 0},
		{"over-revealed", 10, 12, 10, 0},
		{"rounding up", 10, 1, 3, 7},
		{"zero tokens", 10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := earlyBonus(tt.maxBonus, tt.revealedAtBuzz, tt.totalTokens)
			if got != tt.want {
				t.Errorf("earlyBonus(%d, %d, %d) = %d, want %d",
					tt.maxBonus, tt.revealedAtBuzz, tt.totalTokens, got, tt.want)
			}
		})
	}
}

func TestEarlyBonusDecreasesWithReveals(t *testing.T) {
	const total = 12
	prev := earlyBonus(10, 0, total)
	for revealed := 1; revealed <= total; revealed++ {
		got := earlyBonus(10, revealed, total)
		if got > prev {
			t.Fatalf("bonus rose from %d to %d at %d revealed tokens", prev, got, revealed)
		}
		prev = got
	}
	if prev != 0 {
		t.Errorf("bonus at full reveal = %d, want 0", prev)
	}
}

func TestScoreAnswer(t *testing.T) {
	rules := DefaultRules()
	rules.WrongPenalty = 2
	q := &models.Question{
		Type:            models.QuestionFreeText,
		Text:            "one two three four five six seven eight nine ten",
		AcceptedAnswers: []string{"yes"},
		Points:          20,
	}

	tests := []struct {
		name           string
		correct        bool
		isSteal        bool
		revealedAtBuzz int
		want           Verdict
	}{
		{
			name:           "correct with early bonus",
			correct:        true,
			revealedAtBuzz: 5,
			want:           Verdict{IsCorrect: true, BasePoints: 20, EarlyBonus: 5, TotalPoints: 25},
		},
		{
			name:           "correct steal pays half with no bonus",
			correct:        true,
			isSteal:        true,
			revealedAtBuzz: 2,
			want:           Verdict{IsCorrect: true, BasePoints: 10, TotalPoints: 10, WasSteal: true},
		},
		{
			name:           "wrong answer costs the penalty",
			correct:        false,
			revealedAtBuzz: 3,
			want:           Verdict{TotalPoints: -2},
		},
		{
			name:           "wrong steal costs the penalty too",
			correct:        false,
			isSteal:        true,
			revealedAtBuzz: 3,
			want:           Verdict{TotalPoints: -2, WasSteal: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreAnswer(rules, q, tt.correct, tt.isSteal, tt.revealedAtBuzz)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("scoreAnswer() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyVerdictStreakAndFreeze(t *testing.T) {
	rules := DefaultRules()
	rules.FreezeThreshold = 3
	team := &models.Team{Name: "Team 1"}

	correct := Verdict{IsCorrect: true, TotalPoints: 10}
	wrong := Verdict{TotalPoints: 0}

	applyVerdict(rules, team, correct, 0)
	applyVerdict(rules, team, correct, 1)
	if team.Streak != 2 || team.Score != 20 {
		t.Fatalf("after two correct: streak=%d score=%d, want 2 and 20", team.Streak, team.Score)
	}

	applyVerdict(rules, team, wrong, 2)
	if team.Streak != 0 {
		t.Errorf("streak after wrong = %d, want 0", team.Streak)
	}
	if team.Frozen {
		t.Error("team frozen after one wrong answer")
	}

	applyVerdict(rules, team, wrong, 3)
	applyVerdict(rules, team, wrong, 4)
	if !team.Frozen {
		t.Fatal("team not frozen after three consecutive wrong answers")
	}
	if team.FrozenAtQuestion != 4 {
		t.Errorf("FrozenAtQuestion = %d, want 4", team.FrozenAtQuestion)
	}

	// next-correct mode: a correct answer thaws and resets the counter
	applyVerdict(rules, team, correct, 5)
	if team.Frozen {
		t.Error("team still frozen after correct answer in next-correct mode")
	}
	if team.ConsecutiveWrong != 0 {
		t.Errorf("ConsecutiveWrong = %d, want 0", team.ConsecutiveWrong)
	}
}

func TestApplyVerdictCooldownModeKeepsFrozen(t *testing.T) {
	rules := DefaultRules()
	rules.Unfreeze = UnfreezeCooldown
	team := &models.Team{Name: "Team 1", Frozen: true, FrozenAtQuestion: 2}

	applyVerdict(rules, team, Verdict{IsCorrect: true, TotalPoints: 5}, 3)
	if !team.Frozen {
		t.Error("cooldown mode must not thaw on a correct answer")
	}
}

func TestThawCooldownTeams(t *testing.T) {
	rules := DefaultRules()
	rules.Unfreeze = UnfreezeCooldown
	rules.UnfreezeCooldownQuestions = 2

	frozen := &models.Team{Name: "Frozen", Frozen: true, FrozenAtQuestion: 1, ConsecutiveWrong: 3}
	fresh := &models.Team{Name: "Fresh", Frozen: true, FrozenAtQuestion: 2, ConsecutiveWrong: 3}
	s := &models.Session{Teams: []*models.Team{frozen, fresh}, QuestionIndex: 3}

	thawCooldownTeams(rules, s)

	if frozen.Frozen {
		t.Error("team frozen at question 1 should thaw by question 3")
	}
	if frozen.ConsecutiveWrong != 0 {
		t.Errorf("thawed team ConsecutiveWrong = %d, want 0", frozen.ConsecutiveWrong)
	}
	if !fresh.Frozen {
		t.Error("team frozen at question 2 should stay frozen at question 3")
	}
}

func TestThawCooldownTeamsNoopInNextCorrectMode(t *testing.T) {
	rules := DefaultRules()
	team := &models.Team{Name: "Frozen", Frozen: true, FrozenAtQuestion: 0}
	s := &models.Session{Teams: []*models.Team{team}, QuestionIndex: 10}

	thawCooldownTeams(rules, s)
	if !team.Frozen {
		t.Error("next-correct mode must not thaw on question advance")
	}
}
