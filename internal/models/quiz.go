package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizQuestion is one personality-quiz question. The question set is static
// and served straight from the database.
type QuizQuestion struct {
	ID       int          `json:"id"`
	Question string       `json:"question"`
	Options  []QuizOption `json:"options"`
}

type QuizOption struct {
	Text  string `json:"text"`
	Value string `json:"value"` // trait key, e.g. "tech", "social", "art"
}

type QuizResult struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Answers          []string  `json:"answers"` // chosen trait values, in question order
	RecommendedField string    `json:"recommended_field"`
	CreatedAt        time.Time `json:"created_at"`
}

type SubmitQuizRequest struct {
	Answers []string `json:"answers"`
}
