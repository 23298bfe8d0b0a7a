package models

import (
	"time"

	"github.com/google/uuid"
)

// Exam is one entry in a student's personal exam schedule.
type Exam struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Subject   string    `json:"subject"`
	Date      string    `json:"date"` // "2006-01-02"
	Time      string    `json:"time"` // "15:04"
	Room      string    `json:"room"`
	Building  string    `json:"building"`
	CreatedAt time.Time `json:"created_at"`
}

type ExamRequest struct {
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Room     string `json:"room"`
	Building string `json:"building"`
}
