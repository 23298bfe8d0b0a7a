package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

type ExamRepo struct {
	pool *pgxpool.Pool
}

func NewExamRepo(pool *pgxpool.Pool) *ExamRepo {
	return &ExamRepo{pool: pool}
}

func (r *ExamRepo) Create(ctx context.Context, e *models.Exam) error {
	e.ID = uuid.New()

	query := `INSERT INTO exams (id, user_id, subject, exam_date, exam_time, room, building)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.Subject, e.Date, e.Time, e.Room, e.Building,
	).Scan(&e.CreatedAt)
}

func (r *ExamRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Exam, error) {
	query := `SELECT id, user_id, subject, exam_date, exam_time, room, building, created_at
		FROM exams WHERE user_id = $1 ORDER BY exam_date ASC, exam_time ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []*models.Exam
	for rows.Next() {
		e := &models.Exam{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Subject, &e.Date, &e.Time, &e.Room, &e.Building, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}

	return exams, rows.Err()
}

func (r *ExamRepo) Update(ctx context.Context, id, userID uuid.UUID, req models.ExamRequest) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE exams SET subject = $1, exam_date = $2, exam_time = $3, room = $4, building = $5
		WHERE id = $6 AND user_id = $7
	`, req.Subject, req.Date, req.Time, req.Room, req.Building, id, userID)
	return err
}

func (r *ExamRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM exams WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

// ListUpcoming returns exams whose date falls within the next `days` days,
// joined with the owning user's email for reminder delivery.
type UpcomingExam struct {
	Exam     models.Exam
	Email    string
	FullName string
}

func (r *ExamRepo) ListUpcoming(ctx context.Context, days int) ([]UpcomingExam, error) {
	query := `SELECT e.id, e.user_id, e.subject, e.exam_date, e.exam_time, e.room, e.building, e.created_at,
		u.email, u.full_name
		FROM exams e
		JOIN users u ON u.id = e.user_id
		WHERE u.is_active = TRUE AND u.exam_reminders = TRUE
		  AND e.exam_date::date BETWEEN CURRENT_DATE AND CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY e.exam_date ASC`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var upcoming []UpcomingExam
	for rows.Next() {
		var u UpcomingExam
		err := rows.Scan(
			&u.Exam.ID, &u.Exam.UserID, &u.Exam.Subject, &u.Exam.Date, &u.Exam.Time,
			&u.Exam.Room, &u.Exam.Building, &u.Exam.CreatedAt, &u.Email, &u.FullName,
		)
		if err != nil {
			return nil, err
		}
		upcoming = append(upcoming, u)
	}

	return upcoming, rows.Err()
}
