package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	user.ID = uuid.New()
	user.IsActive = true
	user.ExamReminders = true

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, full_name, grade, school, target_major,
		exam_reminders, is_active, created_at, last_login_at
		FROM users WHERE email = $1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Grade,
		&user.School, &user.TargetMajor, &user.ExamReminders, &user.IsActive,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, full_name, grade, school, target_major,
		exam_reminders, is_active, created_at, last_login_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Grade,
		&user.School, &user.TargetMajor, &user.ExamReminders, &user.IsActive,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) error {
	query := `UPDATE users SET
		full_name = COALESCE($1, full_name),
		grade = COALESCE($2, grade),
		school = COALESCE($3, school),
		target_major = COALESCE($4, target_major),
		exam_reminders = COALESCE($5, exam_reminders)
		WHERE id = $6`

	_, err := r.pool.Exec(ctx, query,
		req.FullName, req.Grade, req.School, req.TargetMajor, req.ExamReminders, userID,
	)
	return err
}

// ReminderRecipient is a user who opted into exam reminder emails.
type ReminderRecipient struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	CreatedAt time.Time
}

func (r *UserRepo) ListReminderRecipients(ctx context.Context) ([]ReminderRecipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, full_name, created_at
		FROM users
		WHERE is_active = TRUE AND exam_reminders = TRUE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []ReminderRecipient
	for rows.Next() {
		var rec ReminderRecipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.FullName, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}

	return recipients, rows.Err()
}
