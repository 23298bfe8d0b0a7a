package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) ListQuestions(ctx context.Context) ([]*models.QuizQuestion, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, question, options FROM quiz_questions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.QuizQuestion
	for rows.Next() {
		q := &models.QuizQuestion{}
		var raw []byte
		if err := rows.Scan(&q.ID, &q.Question, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (r *QuizRepo) SaveResult(ctx context.Context, res *models.QuizResult) error {
	res.ID = uuid.New()
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}

	query := `INSERT INTO quiz_results (id, user_id, answers, recommended_field)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		res.ID, res.UserID, answers, res.RecommendedField,
	).Scan(&res.CreatedAt)
}

func (r *QuizRepo) LatestResult(ctx context.Context, userID uuid.UUID) (*models.QuizResult, error) {
	res := &models.QuizResult{}
	var raw []byte

	query := `SELECT id, user_id, answers, recommended_field, created_at
		FROM quiz_results WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&res.ID, &res.UserID, &raw, &res.RecommendedField, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(raw, &res.Answers); err != nil {
		res.Answers = []string{}
	}
	return res, nil
}
