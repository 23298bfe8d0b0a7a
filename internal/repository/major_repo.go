package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

type MajorRepo struct {
	pool *pgxpool.Pool
}

func NewMajorRepo(pool *pgxpool.Pool) *MajorRepo {
	return &MajorRepo{pool: pool}
}

// MajorFilter narrows the catalogue listing. Zero values mean "no filter".
type MajorFilter struct {
	Search   string
	Block    string
	Location string
	Type     string
	Demand   string
	SortBy   string
	Limit    int
	Offset   int
}

func (r *MajorRepo) List(ctx context.Context, f MajorFilter) ([]*models.Major, int, error) {
	var args []interface{}
	argIdx := 1

	where := "WHERE TRUE"
	if f.Search != "" {
		where += fmt.Sprintf(" AND (major_name ILIKE $%d OR university ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}
	if f.Block != "" {
		where += fmt.Sprintf(" AND $%d = ANY(blocks)", argIdx)
		args = append(args, f.Block)
		argIdx++
	}
	if f.Location != "" {
		where += fmt.Sprintf(" AND location = $%d", argIdx)
		args = append(args, f.Location)
		argIdx++
	}
	if f.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, f.Type)
		argIdx++
	}
	if f.Demand != "" {
		where += fmt.Sprintf(" AND demand = $%d", argIdx)
		args = append(args, f.Demand)
		argIdx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM majors "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "score DESC"
	switch f.SortBy {
	case "name":
		orderBy = "major_name ASC"
	case "score_asc":
		orderBy = "score ASC"
	case "university":
		orderBy = "university ASC"
	}

	query := fmt.Sprintf(`SELECT id, major_name, university, score, tuition, blocks, location,
		type, demand, ai_risk, description, avg_salary, employment_rate
		FROM majors %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy, argIdx, argIdx+1)

	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var majors []*models.Major
	for rows.Next() {
		m := &models.Major{}
		err := rows.Scan(
			&m.ID, &m.MajorName, &m.University, &m.Score, &m.Tuition, &m.Blocks,
			&m.Location, &m.Type, &m.Demand, &m.AIRisk, &m.Description,
			&m.AvgSalary, &m.EmploymentRate,
		)
		if err != nil {
			return nil, 0, err
		}
		majors = append(majors, m)
	}

	return majors, total, rows.Err()
}

func (r *MajorRepo) GetByID(ctx context.Context, id string) (*models.Major, error) {
	m := &models.Major{}
	query := `SELECT id, major_name, university, score, tuition, blocks, location,
		type, demand, ai_risk, description, avg_salary, employment_rate
		FROM majors WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.MajorName, &m.University, &m.Score, &m.Tuition, &m.Blocks,
		&m.Location, &m.Type, &m.Demand, &m.AIRisk, &m.Description,
		&m.AvgSalary, &m.EmploymentRate,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListAll returns the whole catalogue, id and name only, for prompt building.
func (r *MajorRepo) ListAll(ctx context.Context) ([]*models.Major, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, major_name, university FROM majors ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var majors []*models.Major
	for rows.Next() {
		m := &models.Major{}
		if err := rows.Scan(&m.ID, &m.MajorName, &m.University); err != nil {
			return nil, err
		}
		majors = append(majors, m)
	}

	return majors, rows.Err()
}

// Saved majors (dashboard bookmarks)

func (r *MajorRepo) Save(ctx context.Context, userID uuid.UUID, majorID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_majors (user_id, major_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, major_id) DO NOTHING
	`, userID, majorID)
	return err
}

func (r *MajorRepo) Unsave(ctx context.Context, userID uuid.UUID, majorID string) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM saved_majors WHERE user_id = $1 AND major_id = $2",
		userID, majorID,
	)
	return err
}

func (r *MajorRepo) ListSaved(ctx context.Context, userID uuid.UUID) ([]*models.Major, error) {
	query := `SELECT m.id, m.major_name, m.university, m.score, m.tuition, m.blocks, m.location,
		m.type, m.demand, m.ai_risk, m.description, m.avg_salary, m.employment_rate
		FROM saved_majors s
		JOIN majors m ON m.id = s.major_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var majors []*models.Major
	for rows.Next() {
		m := &models.Major{}
		err := rows.Scan(
			&m.ID, &m.MajorName, &m.University, &m.Score, &m.Tuition, &m.Blocks,
			&m.Location, &m.Type, &m.Demand, &m.AIRisk, &m.Description,
			&m.AvgSalary, &m.EmploymentRate,
		)
		if err != nil {
			return nil, err
		}
		majors = append(majors, m)
	}

	return majors, rows.Err()
}
