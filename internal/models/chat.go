package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single turn in a mentor conversation. Model turns store the
// raw Gemini text including any embedded chart block, so reloading a session
// can re-run the chart parser and get the same result.
type Message struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// ChatSession is one persisted mentor conversation.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChartData is the machine-readable side channel a mentor reply may embed to
// describe a small categorical dataset for the frontend chart renderer.
type ChartData struct {
	Type      string    `json:"type"`      // always "chart"
	ChartType string    `json:"chartType"` // "bar" | "radar" | "line" | "pie"
	Title     string    `json:"title"`
	Labels    []string  `json:"labels"`
	Data      []float64 `json:"data"`
}

type SendMessageRequest struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Message   string     `json:"message"`
}

type SendMessageResponse struct {
	Session  *ChatSession `json:"session"`
	Reply    string       `json:"reply"`
	Chart    *ChartData   `json:"chart,omitempty"`
	Degraded bool         `json:"degraded,omitempty"`
}

type RenameSessionRequest struct {
	Title string `json:"title"`
}

// WebSocket payloads for streaming mentor replies.
type ChatPartial struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

type ChatCompleted struct {
	SessionID string     `json:"session_id"`
	Reply     string     `json:"reply"`
	Chart     *ChartData `json:"chart,omitempty"`
}
