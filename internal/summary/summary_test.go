package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

func tx(kind domain.TransactionKind, amount float64, category string, ts time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        category + ts.Format("20060102150405"),
		Timestamp: ts,
		Kind:      kind,
		Amount:    amount,
		Category:  category,
	}
}

func TestCompute_MixedTransactions(t *testing.T) {
	day1 := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2025, time.March, 2, 12, 30, 0, 0, time.Local)
	day3 := time.Date(2025, time.March, 3, 18, 0, 0, 0, time.Local)

	s := Compute([]domain.Transaction{
		tx(domain.KindIncome, 5000, "Salary", day1),
		tx(domain.KindExpense, 100, "Food", day2),
		tx(domain.KindExpense, 50, "Food", day2),
		tx(domain.KindExpense, 30, "Transport", day3),
	})

	assert.Equal(t, 5000.0, s.TotalIncome)
	assert.Equal(t, 180.0, s.TotalExpense)
	assert.Equal(t, 4820.0, s.Balance)

	require.Len(t, s.ExpensesByCategory, 2)
	food, ok := s.ExpenseFor("Food")
	require.True(t, ok)
	assert.Equal(t, 150.0, food)
	transport, ok := s.ExpenseFor("Transport")
	require.True(t, ok)
	assert.Equal(t, 30.0, transport)

	require.Len(t, s.DailyExpenses, 2)
	assert.Equal(t, "2025-03-02", s.DailyExpenses[0].Day)
	assert.Equal(t, 150.0, s.DailyExpenses[0].Amount)
	assert.Equal(t, "2025-03-03", s.DailyExpenses[1].Day)
	assert.Equal(t, 30.0, s.DailyExpenses[1].Amount)
	assert.Equal(t, "Mar 2", s.DailyExpenses[0].Label)
}

func TestCompute_EmptyInput(t *testing.T) {
	s := Compute(nil)

	assert.Zero(t, s.TotalIncome)
	assert.Zero(t, s.TotalExpense)
	assert.Zero(t, s.Balance)
	assert.Empty(t, s.ExpensesByCategory)
	assert.Empty(t, s.DailyExpenses)
	assert.Empty(t, s.MonthlyCashflow)
}

func TestCompute_CategoryTotalsMatchTotalExpense(t *testing.T) {
	base := time.Date(2025, time.January, 10, 8, 0, 0, 0, time.Local)
	txs := []domain.Transaction{
		tx(domain.KindExpense, 12.5, "Food", base),
		tx(domain.KindExpense, 7.25, "food", base.AddDate(0, 0, 1)), // case-sensitive: distinct bucket
		tx(domain.KindExpense, 40, "Rent", base.AddDate(0, 0, 2)),
		tx(domain.KindIncome, 900, "Salary", base.AddDate(0, 0, 3)),
	}

	s := Compute(txs)

	var sum float64
	for _, c := range s.ExpensesByCategory {
		sum += c.Amount
	}
	assert.InDelta(t, s.TotalExpense, sum, 1e-9)
	assert.InDelta(t, s.TotalIncome-s.TotalExpense, s.Balance, 1e-9)
	assert.Len(t, s.ExpensesByCategory, 3)
}

func TestCompute_DailyExpensesStrictlyAscending(t *testing.T) {
	// Deliberately unordered input; summaries take the collection unordered.
	txs := []domain.Transaction{
		tx(domain.KindExpense, 5, "A", time.Date(2025, time.June, 20, 23, 59, 0, 0, time.Local)),
		tx(domain.KindExpense, 5, "A", time.Date(2025, time.June, 1, 0, 0, 1, 0, time.Local)),
		tx(domain.KindExpense, 5, "A", time.Date(2025, time.June, 11, 12, 0, 0, 0, time.Local)),
		tx(domain.KindExpense, 5, "A", time.Date(2025, time.June, 11, 13, 0, 0, 0, time.Local)),
	}

	s := Compute(txs)

	require.Len(t, s.DailyExpenses, 3)
	for i := 1; i < len(s.DailyExpenses); i++ {
		assert.Less(t, s.DailyExpenses[i-1].Day, s.DailyExpenses[i].Day)
	}
}

func TestCompute_IncomeDoesNotAppearInExpenseGroupings(t *testing.T) {
	s := Compute([]domain.Transaction{
		tx(domain.KindIncome, 100, "Salary", time.Date(2025, time.May, 5, 10, 0, 0, 0, time.Local)),
	})

	assert.Empty(t, s.ExpensesByCategory)
	assert.Empty(t, s.DailyExpenses)
	require.Len(t, s.MonthlyCashflow, 1)
	assert.Equal(t, 100.0, s.MonthlyCashflow[0].Income)
	assert.Zero(t, s.MonthlyCashflow[0].Expense)
}

func TestCompute_MonthBucketsCollapseAcrossYears(t *testing.T) {
	// Month-name-only grouping: January 2024 and January 2025 share a bucket.
	s := Compute([]domain.Transaction{
		tx(domain.KindExpense, 10, "A", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local)),
		tx(domain.KindExpense, 20, "A", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.Local)),
	})

	require.Len(t, s.MonthlyCashflow, 1)
	assert.Equal(t, "January", s.MonthlyCashflow[0].Month)
	assert.Equal(t, 30.0, s.MonthlyCashflow[0].Expense)
}

func TestUtilization(t *testing.T) {
	tests := []struct {
		name        string
		spent       float64
		limit       float64
		wantPercent int
		wantOver    bool
	}{
		{"under budget", 50, 100, 50, false},
		{"exactly at limit", 100, 100, 100, false},
		{"over budget", 150, 100, 150, true},
		{"rounds to nearest", 333, 1000, 33, false},
		{"rounds half up", 335, 1000, 34, false},
		{"zero limit clamps to over", 10, 0, 0, true},
		{"negative limit clamps to over", 10, -5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, over := Utilization(tt.spent, tt.limit)
			assert.Equal(t, tt.wantPercent, percent)
			assert.Equal(t, tt.wantOver, over)
		})
	}
}
