package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/quizbuzz/go/internal/dbconfig"
)

// QuestionSet mirrors the JSON snapshot structure
type QuestionSet struct {
	SetID     string     `json:"set_id"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Type            string   `json:"type"`
	AcceptedAnswers []string `json:"accepted_answers"`
	Options         []string `json:"options"`
	CorrectOption   *int     `json:"correct_option"`
	Points          int      `json:"points"`
	Category        *string  `json:"category"`
	Difficulty      *string  `json:"difficulty"`
}

func main() {
	path := "go/internal/assets/questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var sets []QuestionSet
	if err := json.Unmarshal(data, &sets); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    int
		inserted int
		skipped  int
		errs     int
	)

	for _, set := range sets {
		for pos, q := range set.Questions {
			total++
			cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO questions (
              id, set_id, position, text, type, accepted_answers,
              options, correct_option, points, category, difficulty
            ) VALUES (
              $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
            )
            ON CONFLICT (set_id, position) DO NOTHING
        `,
				q.ID, set.SetID, pos, q.Text, q.Type, q.AcceptedAnswers,
				q.Options, q.CorrectOption, q.Points, q.Category, q.Difficulty,
			)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error inserting question %s: %v\n", q.ID, err)
				errs++
				continue
			}
			if cmdTag.RowsAffected() == 1 {
				inserted++
			} else {
				skipped++
			}
		}
	}

	fmt.Printf("question sets: %d\n", len(sets))
	fmt.Printf("questions:     %d (inserted %d, skipped %d, errors %d)\n",
		total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
