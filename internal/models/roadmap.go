package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Roadmap struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Grade        string          `json:"grade"`
	Performance  string          `json:"performance"` // self-assessed: "gioi" | "kha" | "trung-binh"
	TargetMajor  string          `json:"target_major"`
	TargetSchool string          `json:"target_school"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	StagesJSON   json.RawMessage `json:"stages"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// RoadmapStage is one phase of the generated study plan, from grade 10
// through university admission.
type RoadmapStage struct {
	Year       string   `json:"year"`
	Goals      []string `json:"goals"`
	Activities []string `json:"activities"`
}

type GenerateRoadmapRequest struct {
	Grade        string `json:"grade"`
	Performance  string `json:"performance"`
	TargetMajor  string `json:"target_major"`
	TargetSchool string `json:"target_school"`
}
