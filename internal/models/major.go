package models

import "time"

// Major is one catalogue entry (a major offered at a specific university).
// The catalogue is seeded from a static dataset, so IDs are stable slugs
// such as "cntt-hust" rather than generated UUIDs.
type Major struct {
	ID             string   `json:"id"`
	MajorName      string   `json:"major_name"`
	University     string   `json:"university"`
	Score          float64  `json:"score"` // benchmark admission score
	Tuition        string   `json:"tuition"`
	Blocks         []string `json:"blocks"` // exam blocks, e.g. A00, D01
	Location       string   `json:"location"`
	Type           string   `json:"type"`    // "public" | "private" | "international"
	Demand         string   `json:"demand"`  // "high" | "medium" | "low"
	AIRisk         string   `json:"ai_risk"` // automation risk: "low" | "medium" | "high"
	Description    *string  `json:"description,omitempty"`
	AvgSalary      *string  `json:"avg_salary,omitempty"`
	EmploymentRate *string  `json:"employment_rate,omitempty"`
}

type SavedMajor struct {
	MajorID string    `json:"major_id"`
	SavedAt time.Time `json:"saved_at"`
}

type MajorSuggestRequest struct {
	Query string `json:"query"`
}

// MajorSuggestion is one AI-ranked catalogue match for a free-text query.
type MajorSuggestion struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
