package domain

import "errors"

// BudgetPeriod is an informational tag; aggregation always runs over the
// full record set, not a period window.
type BudgetPeriod string

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Budget caps spending for one category. Matching against transactions is
// case-insensitive on the category label.
type Budget struct {
	ID       string       `json:"id"`
	Category string       `json:"category"`
	Limit    float64      `json:"limit"` // must be positive
	Period   BudgetPeriod `json:"period"`
}

var ErrNonPositiveLimit = errors.New("budget limit must be positive")

// Validate checks the budget invariants.
func (b *Budget) Validate() error {
	if b.Limit <= 0 {
		return ErrNonPositiveLimit
	}
	if b.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Goal tracks progress toward a savings target. CurrentAmount may exceed
// TargetAmount; no upper bound is enforced.
type Goal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"` // never negative
}
