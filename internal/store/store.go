// Package store defines the persistence contracts the assistant depends on.
// Implementations live in subpackages; callers receive them as explicit
// dependencies rather than through a shared singleton.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// ErrNotFound is returned when an entity id does not exist in the store.
var ErrNotFound = errors.New("store: not found")

// RecordStore is CRUD over the transaction, budget and goal collections.
// No transactional guarantees beyond last-write-wins per entity id.
type RecordStore interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, tx domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListBudgets(ctx context.Context) ([]domain.Budget, error)
	AddBudget(ctx context.Context, b domain.Budget) error
	UpdateBudget(ctx context.Context, b domain.Budget) error
	DeleteBudget(ctx context.Context, id string) error

	ListGoals(ctx context.Context) ([]domain.Goal, error)
	AddGoal(ctx context.Context, g domain.Goal) error
	UpdateGoal(ctx context.Context, g domain.Goal) error
	DeleteGoal(ctx context.Context, id string) error

	// Reset overwrites all three collections with empty values. The
	// collections remain initialized so nothing reseeds them afterwards.
	Reset(ctx context.Context) error
}

// TranscriptStore holds the append-only conversation transcript.
type TranscriptStore interface {
	AppendMessage(ctx context.Context, msg domain.ChatMessage) error
	ListMessages(ctx context.Context) ([]domain.ChatMessage, error)
	GetMessage(ctx context.Context, id string) (domain.ChatMessage, error)
}
