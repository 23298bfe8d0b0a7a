package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

type RoadmapRepo struct {
	pool *pgxpool.Pool
}

func NewRoadmapRepo(pool *pgxpool.Pool) *RoadmapRepo {
	return &RoadmapRepo{pool: pool}
}

func (r *RoadmapRepo) Create(ctx context.Context, m *models.Roadmap) error {
	m.ID = uuid.New()
	m.Status = "pending"

	query := `INSERT INTO roadmaps (id, user_id, grade, performance, target_major, target_school, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		m.ID, m.UserID, m.Grade, m.Performance, m.TargetMajor, m.TargetSchool, m.Status,
	).Scan(&m.CreatedAt)
}

func (r *RoadmapRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Roadmap, error) {
	m := &models.Roadmap{}
	query := `SELECT id, user_id, grade, performance, target_major, target_school, status, stages, created_at, completed_at
		FROM roadmaps WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.Grade, &m.Performance, &m.TargetMajor, &m.TargetSchool,
		&m.Status, &m.StagesJSON, &m.CreatedAt, &m.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *RoadmapRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Roadmap, error) {
	query := `SELECT id, user_id, grade, performance, target_major, target_school, status, stages, created_at, completed_at
		FROM roadmaps WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roadmaps []*models.Roadmap
	for rows.Next() {
		m := &models.Roadmap{}
		err := rows.Scan(
			&m.ID, &m.UserID, &m.Grade, &m.Performance, &m.TargetMajor, &m.TargetSchool,
			&m.Status, &m.StagesJSON, &m.CreatedAt, &m.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		roadmaps = append(roadmaps, m)
	}

	return roadmaps, rows.Err()
}

func (r *RoadmapRepo) UpdateStages(ctx context.Context, id uuid.UUID, stages []models.RoadmapStage) error {
	raw, err := json.Marshal(stages)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		"UPDATE roadmaps SET stages = $1, status = 'completed', completed_at = NOW() WHERE id = $2",
		raw, id,
	)
	return err
}

func (r *RoadmapRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE roadmaps SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *RoadmapRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM roadmaps WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
