package repository

import (
	"testing"

	"github.com/google/uuid"

	"oriemap-backend/internal/models"
)

func TestDecodeMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"valid history", `[{"role":"user","text":"Chào"},{"role":"model","text":"Chào bạn!"}]`, 2},
		{"empty array", `[]`, 0},
		{"empty column", ``, 0},
		{"json null", `null`, 0},
		{"truncated json", `[{"role":"user","text":"Ch`, 0},
		{"wrong shape", `{"role":"user"}`, 0},
		{"not json at all", `garbage`, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeMessages(uuid.New(), []byte(tc.raw))
			if got == nil {
				t.Fatal("decodeMessages must never return a nil list")
			}
			if len(got) != tc.want {
				t.Errorf("expected %d messages, got %d", tc.want, len(got))
			}
		})
	}
}

func TestDecodeMessages_KeepsContent(t *testing.T) {
	raw := `[{"role":"user","text":"Em muốn học CNTT"}]`

	got := decodeMessages(uuid.New(), []byte(raw))
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Role != models.RoleUser || got[0].Text != "Em muốn học CNTT" {
		t.Errorf("unexpected decoded message: %+v", got[0])
	}
}
