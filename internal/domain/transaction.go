package domain

import (
	"errors"
	"strings"
	"time"
)

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

const (
	KindExpense TransactionKind = "EXPENSE"
	KindIncome  TransactionKind = "INCOME"
)

// Transaction represents one persisted money movement. It is created either
// by the assistant (from parsed free text) or by a direct edit through the
// API; summaries derived from it are recomputed, never patched.
type Transaction struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Kind        TransactionKind `json:"kind"`
	Amount      float64         `json:"amount"`   // always positive; Kind carries the sign
	Category    string          `json:"category"` // non-empty label
	Description string          `json:"description"`
}

var (
	ErrInvalidKind       = errors.New("kind must be EXPENSE or INCOME")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrEmptyCategory     = errors.New("category must not be empty")
)

// Validate checks the invariants every persisted transaction must hold.
func (t *Transaction) Validate() error {
	if t.Kind != KindExpense && t.Kind != KindIncome {
		return ErrInvalidKind
	}
	if t.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
