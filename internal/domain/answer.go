package domain

import "strings"

// QuizAnswer is the normalized, validated value describing one quiz
// submission: recipient context, interest tags, and budget range. It is a
// pure value type, never persisted directly; the session header echoes it.
type QuizAnswer struct {
	Relationship string     `json:"relationship"`
	Occasion     string     `json:"occasion"`
	Tags         StringList `json:"tags"`
	BudgetMin    float64    `json:"budget_min"`
	BudgetMax    float64    `json:"budget_max"`
	UserID       string     `json:"user_id,omitempty"`
}

// Valid reports whether the answer satisfies the engine's input contract:
// non-empty relationship and occasion, non-negative budget, and max > min.
// Input validation proper happens at the HTTP boundary; this is the
// last-line programming-contract check before ranking.
func (a QuizAnswer) Valid() bool {
	if strings.TrimSpace(a.Relationship) == "" || strings.TrimSpace(a.Occasion) == "" {
		return false
	}
	if a.BudgetMin < 0 || a.BudgetMax <= a.BudgetMin {
		return false
	}
	return true
}

// BudgetSpan returns the width of the stated budget range.
func (a QuizAnswer) BudgetSpan() float64 { return a.BudgetMax - a.BudgetMin }
