// Package summary derives the aggregate financial view from the full
// transaction set. Everything here is pure: no I/O, no stored state, and the
// result is recomputed from scratch after every mutation.
package summary

import (
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

const dayKeyFormat = "2006-01-02"

// Compute builds a FinancialSummary from an unordered transaction collection.
// An empty input yields an all-zero summary with empty groupings.
func Compute(txs []domain.Transaction) domain.FinancialSummary {
	var s domain.FinancialSummary
	s.ExpensesByCategory = []domain.CategoryExpense{}
	s.DailyExpenses = []domain.DailyExpense{}
	s.MonthlyCashflow = []domain.MonthlyCashflow{}

	categoryIdx := make(map[string]int)
	dailyTotals := make(map[string]float64)
	monthIdx := make(map[string]int)

	for _, tx := range txs {
		// Month buckets are keyed by month name only; same-named months
		// from different years collapse into one bucket.
		month := tx.Timestamp.Month().String()
		mi, ok := monthIdx[month]
		if !ok {
			mi = len(s.MonthlyCashflow)
			monthIdx[month] = mi
			s.MonthlyCashflow = append(s.MonthlyCashflow, domain.MonthlyCashflow{Month: month})
		}

		switch tx.Kind {
		case domain.KindIncome:
			s.TotalIncome += tx.Amount
			s.MonthlyCashflow[mi].Income += tx.Amount

		case domain.KindExpense:
			s.TotalExpense += tx.Amount
			s.MonthlyCashflow[mi].Expense += tx.Amount

			ci, ok := categoryIdx[tx.Category]
			if !ok {
				ci = len(s.ExpensesByCategory)
				categoryIdx[tx.Category] = ci
				s.ExpensesByCategory = append(s.ExpensesByCategory, domain.CategoryExpense{Category: tx.Category})
			}
			s.ExpensesByCategory[ci].Amount += tx.Amount

			// Day granularity in local time; the clock part is dropped.
			dailyTotals[tx.Timestamp.Local().Format(dayKeyFormat)] += tx.Amount
		}
	}

	s.Balance = s.TotalIncome - s.TotalExpense

	days := make([]string, 0, len(dailyTotals))
	for day := range dailyTotals {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		s.DailyExpenses = append(s.DailyExpenses, domain.DailyExpense{
			Day:    day,
			Label:  dayLabel(day),
			Amount: dailyTotals[day],
		})
	}

	return s
}

// dayLabel turns a "2006-01-02" key into a short display label like "Jan 2".
func dayLabel(key string) string {
	t, err := time.Parse(dayKeyFormat, key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2")
}

// Utilization reports how much of a budget limit has been consumed.
// Percent is round(spent/limit*100). A zero or negative limit can only come
// from a misconfigured budget; it is clamped to the over-budget signal
// instead of dividing, with the percentage reported as zero.
func Utilization(spent, limit float64) (percent int, over bool) {
	if limit <= 0 {
		return 0, true
	}
	return int(math.Round(spent / limit * 100)), spent > limit
}
