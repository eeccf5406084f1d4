package domain

// CategoryExpense is one category's summed expense amount.
type CategoryExpense struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// DailyExpense is the summed expense for one calendar day.
// Day is the sortable key ("2006-01-02" in local time); Label is for display.
type DailyExpense struct {
	Day    string  `json:"day"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// MonthlyCashflow accumulates income and expense per month label.
// The key is the month name only, not qualified by year, so data spanning
// multiple years collapses same-named months into one bucket.
type MonthlyCashflow struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// FinancialSummary is the derived aggregate view over the full transaction
// set. It is never persisted; callers recompute it after every mutation.
type FinancialSummary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`

	// ExpensesByCategory preserves first-occurrence insertion order, but
	// callers must treat it as an unordered set of category/value pairs.
	ExpensesByCategory []CategoryExpense `json:"expenses_by_category"`

	// DailyExpenses is sorted ascending by Day; days without expenses are
	// omitted rather than present as zero.
	DailyExpenses []DailyExpense `json:"daily_expenses"`

	MonthlyCashflow []MonthlyCashflow `json:"monthly_cashflow"`
}

// ExpenseFor returns the summed expense for an exact category label.
func (s *FinancialSummary) ExpenseFor(category string) (float64, bool) {
	for _, c := range s.ExpensesByCategory {
		if c.Category == category {
			return c.Amount, true
		}
	}
	return 0, false
}
