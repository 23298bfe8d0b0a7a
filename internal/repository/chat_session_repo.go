package repository

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"oriemap-backend/internal/models"
)

// ChatSessionRepo owns the durable copy of mentor conversations. Every write
// replaces the session's message list as a whole, so the last completed
// logical operation always wins and no partial merge can be observed.
type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

// ListByUser returns the user's sessions, most recently updated first.
// A row whose stored message list cannot be decoded is returned with an
// empty list instead of failing the whole call.
func (r *ChatSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	query := `SELECT id, user_id, title, messages, created_at, updated_at
		FROM chat_sessions WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ChatSession
	for rows.Next() {
		s := &models.ChatSession{}
		var raw []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Messages = decodeMessages(s.ID, raw)
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *ChatSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	var raw []byte

	query := `SELECT id, user_id, title, messages, created_at, updated_at
		FROM chat_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Title, &raw, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Messages = decodeMessages(s.ID, raw)
	return s, nil
}

// Create inserts a session. Inserting an existing id overwrites the stored
// record, keeping create symmetric with ReplaceMessages.
func (r *ChatSessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	raw, err := json.Marshal(s.Messages)
	if err != nil {
		return err
	}

	query := `INSERT INTO chat_sessions (id, user_id, title, messages)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, messages = EXCLUDED.messages, updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.Title, raw).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// ReplaceMessages swaps the session's entire message list. No-op when the
// session does not exist.
func (r *ChatSessionRepo) ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		"UPDATE chat_sessions SET messages = $1, updated_at = NOW() WHERE id = $2",
		raw, id,
	)
	return err
}

// Rename updates the session title. No-op when the session does not exist
// or belongs to another user.
func (r *ChatSessionRepo) Rename(ctx context.Context, id, userID uuid.UUID, title string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET title = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3",
		title, id, userID,
	)
	return err
}

// Delete removes the session. Deleting an absent id is a no-op.
func (r *ChatSessionRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	return err
}

func decodeMessages(id uuid.UUID, raw []byte) []models.Message {
	if len(raw) == 0 {
		return []models.Message{}
	}

	var messages []models.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		// Corrupt history must never take down the session list; the
		// original bytes stay in place for a later migration.
		log.Printf("chat session %s has unreadable history: %v", id, err)
		return []models.Message{}
	}
	if messages == nil {
		return []models.Message{}
	}
	return messages
}
