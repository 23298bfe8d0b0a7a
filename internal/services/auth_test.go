package services

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"valid", "password1", false},
		{"too short", "pass1", true},
		{"no number", "passwordonly", true},
		{"unicode with number", "mậtkhẩu123", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pw)
			if tc.wantErr && err == nil {
				t.Errorf("expected %q to be rejected", tc.pw)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected %q to be accepted, got %v", tc.pw, err)
			}
		})
	}
}

func TestEmailRegex(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.domain.vn"}
	invalid := []string{"", "no-at-sign", "user@", "@example.com", "user@no-tld"}

	for _, e := range valid {
		if !emailRegex.MatchString(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if emailRegex.MatchString(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	in := "```json\n[{\"year\":\"Lớp 10\"}]\n```"
	want := "[{\"year\":\"Lớp 10\"}]"

	if got := stripCodeFences(in); got != want {
		t.Errorf("stripCodeFences(%q) = %q, want %q", in, got, want)
	}

	plain := "[1,2,3]"
	if got := stripCodeFences(plain); got != plain {
		t.Errorf("unfenced input changed: %q", got)
	}
}
