package models

import "strings"

// QuestionType distinguishes how an answer is matched.
type QuestionType string

const (
	QuestionFreeText       QuestionType = "free_text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

// Question is read-only material supplied by the task store.
type Question struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Type            QuestionType `json:"type"`
	AcceptedAnswers []string     `json:"accepted_answers,omitempty"`
	Options         []string     `json:"options,omitempty"`
	CorrectOption   int          `json:"correct_option,omitempty"`
	Points          int          `json:"points"`
	Category        string       `json:"category,omitempty"`
	Difficulty      string       `json:"difficulty,omitempty"`
}

// Tokens splits the question text into the reveal units the driver discloses
// one per tick.
func (q *Question) Tokens() []string {
	return strings.Fields(q.Text)
}

// CorrectAnswer returns the canonical answer string for result events.
func (q *Question) CorrectAnswer() string {
	switch q.Type {
	case QuestionMultipleChoice:
		if q.CorrectOption >= 0 && q.CorrectOption < len(q.Options) {
			return q.Options[q.CorrectOption]
		}
	default:
		if len(q.AcceptedAnswers) > 0 {
			return q.AcceptedAnswers[0]
		}
	}
	return ""
}
