package questions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// Repository reads question sets from Postgres. The engine never writes to
// the task store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository on a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const questionSetQuery = `
SELECT id, text, type, accepted_answers, options, correct_option, points, category, difficulty
FROM questions
WHERE set_id = $1
ORDER BY position`

// FetchQuestionSet loads all questions of a set in play order.
func (r *Repository) FetchQuestionSet(ctx context.Context, setID string) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, questionSetQuery, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query question set: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var (
			q             models.Question
			questionType  string
			accepted      []string
			options       []string
			correctOption *int
			category      *string
			difficulty    *string
		)
		if err := rows.Scan(&q.ID, &q.Text, &questionType, &accepted, &options, &correctOption, &q.Points, &category, &difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		q.Type = models.QuestionType(questionType)
		q.AcceptedAnswers = accepted
		q.Options = options
		if correctOption != nil {
			q.CorrectOption = *correctOption
		}
		if category != nil {
			q.Category = *category
		}
		if difficulty != nil {
			q.Difficulty = *difficulty
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question rows: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question set %s: %w", setID, pgx.ErrNoRows)
	}
	return questions, nil
}
