package domain

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:        "t1",
		Timestamp: time.Now(),
		Kind:      KindExpense,
		Amount:    25,
		Category:  "Food",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(tx *Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Kind = KindIncome }, nil},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "TRANSFER" }, ErrInvalidKind},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrNonPositiveAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = -10 }, ErrNonPositiveAmount},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"whitespace category", func(tx *Transaction) { tx.Category = "   " }, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		budget  Budget
		wantErr error
	}{
		{"valid", Budget{ID: "b1", Category: "Food", Limit: 100, Period: PeriodMonthly}, nil},
		{"zero limit", Budget{ID: "b2", Category: "Food", Limit: 0}, ErrNonPositiveLimit},
		{"negative limit", Budget{ID: "b3", Category: "Food", Limit: -1}, ErrNonPositiveLimit},
		{"empty category", Budget{ID: "b4", Limit: 100}, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.budget.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummaryExpenseFor(t *testing.T) {
	s := FinancialSummary{
		ExpensesByCategory: []CategoryExpense{
			{Category: "Food", Amount: 150},
			{Category: "Transport", Amount: 30},
		},
	}

	if amount, ok := s.ExpenseFor("Food"); !ok || amount != 150 {
		t.Errorf("ExpenseFor(Food) = %v, %v, want 150, true", amount, ok)
	}
	// Lookup is case-sensitive, matching the aggregation keys.
	if _, ok := s.ExpenseFor("food"); ok {
		t.Error("ExpenseFor(food) matched, want miss")
	}
	if _, ok := s.ExpenseFor("Rent"); ok {
		t.Error("ExpenseFor(Rent) matched, want miss")
	}
}
