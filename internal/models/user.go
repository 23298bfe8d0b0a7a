package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	FullName       string     `json:"full_name"`
	Grade          *string    `json:"grade,omitempty"`  // "10" | "11" | "12"
	School         *string    `json:"school,omitempty"`
	TargetMajor    *string    `json:"target_major,omitempty"`
	ExamReminders  bool       `json:"exam_reminders"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type UpdateProfileRequest struct {
	FullName      *string `json:"full_name,omitempty"`
	Grade         *string `json:"grade,omitempty"`
	School        *string `json:"school,omitempty"`
	TargetMajor   *string `json:"target_major,omitempty"`
	ExamReminders *bool   `json:"exam_reminders,omitempty"`
}
