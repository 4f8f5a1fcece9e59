package questions

import (
	"context"
	"fmt"

	"github.com/mcdev12/quizbuzz/go/internal/models"
	"github.com/rs/zerolog/log"
)

// QuestionsRepository defines what the app layer needs from the store.
type QuestionsRepository interface {
	FetchQuestionSet(ctx context.Context, setID string) ([]models.Question, error)
}

// App handles question-set business logic and satisfies the room manager's
// QuestionSource.
type App struct {
	repo QuestionsRepository
}

// NewApp creates a new questions App.
func NewApp(repo QuestionsRepository) *App {
	return &App{repo: repo}
}

// GetQuestionSet fetches a set and validates every question is playable.
func (a *App) GetQuestionSet(ctx context.Context, setID string) ([]models.Question, error) {
	questions, err := a.repo.FetchQuestionSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if err := validateQuestion(&questions[i]); err != nil {
			return nil, fmt.Errorf("question set %s, question %d: %w", setID, i, err)
		}
	}
	log.Info().
		Str("question_set", setID).
		Int("questions", len(questions)).
		Msg("question set loaded")
	return questions, nil
}

func validateQuestion(q *models.Question) error {
	if len(q.Tokens()) == 0 {
		return fmt.Errorf("question %s has empty text", q.ID)
	}
	if q.Points <= 0 {
		return fmt.Errorf("question %s has non-positive points", q.ID)
	}
	switch q.Type {
	case models.QuestionFreeText:
		if len(q.AcceptedAnswers) == 0 {
			return fmt.Errorf("free-text question %s has no accepted answers", q.ID)
		}
	case models.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple-choice question %s needs at least two options", q.ID)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("multiple-choice question %s has correct option out of range", q.ID)
		}
	default:
		return fmt.Errorf("question %s has unknown type %q", q.ID, q.Type)
	}
	return nil
}
