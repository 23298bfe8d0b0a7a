package handlers

import (
	"testing"

	"oriemap-backend/internal/models"
)

func TestScoreAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
	}{
		{"tech majority", []string{"tech", "tech", "social"}, "Công nghệ thông tin"},
		{"creative majority", []string{"creative", "art", "creative"}, "Nghệ thuật và thiết kế"},
		{"business", []string{"business"}, "Kinh tế và quản trị"},
		{"tie goes to first leader", []string{"social", "tech"}, "Khoa học xã hội và nhân văn"},
		{"unknown trait", []string{"neutral", "neutral"}, "Chưa xác định"},
		{"empty answers", nil, "Chưa xác định"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreAnswers(tc.answers); got != tc.want {
				t.Errorf("scoreAnswers(%v) = %q, want %q", tc.answers, got, tc.want)
			}
		})
	}
}

func TestValidateExamRequest(t *testing.T) {
	tests := []struct {
		name      string
		subject   string
		date      string
		time      string
		wantField string
	}{
		{"valid", "Toán", "2026-06-25", "07:30", ""},
		{"missing subject", "", "2026-06-25", "07:30", "subject"},
		{"bad date", "Toán", "25/06/2026", "07:30", "date"},
		{"bad time", "Toán", "2026-06-25", "7h30", "time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := validateExamRequest(models.ExamRequest{
				Subject: tc.subject,
				Date:    tc.date,
				Time:    tc.time,
			})

			if tc.wantField == "" {
				if len(fields) != 0 {
					t.Errorf("expected no field errors, got %v", fields)
				}
				return
			}
			if _, ok := fields[tc.wantField]; !ok {
				t.Errorf("expected error on field %q, got %v", tc.wantField, fields)
			}
		})
	}
}
