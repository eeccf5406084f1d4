// Package inmemory provides map-backed implementations of the store
// contracts. Data is lost on restart; for persistence, use the BigQuery
// backend.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
)

// Store is an in-memory implementation of RecordStore and TranscriptStore.
// It is safe for concurrent use. Values are copied on the way in and out so
// callers cannot mutate stored state behind the store's back.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	budgets      map[string]domain.Budget
	goals        map[string]domain.Goal
	messages     []domain.ChatMessage
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.transactions = make(map[string]domain.Transaction)
	s.budgets = make(map[string]domain.Budget)
	s.goals = make(map[string]domain.Goal)
}

// ListTransactions returns all transactions ordered by timestamp, then id
// for a stable order between equal timestamps.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// AddTransaction stores a new transaction. The id must be set by the caller.
func (s *Store) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("AddTransaction: transaction ID is required")
	}
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

// UpdateTransaction overwrites an existing transaction (last write wins).
func (s *Store) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.ID]; !exists {
		return fmt.Errorf("UpdateTransaction: %w: %s", store.ErrNotFound, tx.ID)
	}
	s.transactions[tx.ID] = tx
	return nil
}

// DeleteTransaction removes a transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[id]; !exists {
		return fmt.Errorf("DeleteTransaction: %w: %s", store.ErrNotFound, id)
	}
	delete(s.transactions, id)
	return nil
}

// ListBudgets returns all budgets ordered by category label.
func (s *Store) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

// AddBudget stores a new budget.
func (s *Store) AddBudget(ctx context.Context, b domain.Budget) error {
	if b.ID == "" {
		return fmt.Errorf("AddBudget: budget ID is required")
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("AddBudget: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return nil
}

// UpdateBudget overwrites an existing budget.
func (s *Store) UpdateBudget(ctx context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgets[b.ID]; !exists {
		return fmt.Errorf("UpdateBudget: %w: %s", store.ErrNotFound, b.ID)
	}
	s.budgets[b.ID] = b
	return nil
}

// DeleteBudget removes a budget by id.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgets[id]; !exists {
		return fmt.Errorf("DeleteBudget: %w: %s", store.ErrNotFound, id)
	}
	delete(s.budgets, id)
	return nil
}

// ListGoals returns all goals ordered by name.
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AddGoal stores a new goal.
func (s *Store) AddGoal(ctx context.Context, g domain.Goal) error {
	if g.ID == "" {
		return fmt.Errorf("AddGoal: goal ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

// UpdateGoal overwrites an existing goal.
func (s *Store) UpdateGoal(ctx context.Context, g domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.goals[g.ID]; !exists {
		return fmt.Errorf("UpdateGoal: %w: %s", store.ErrNotFound, g.ID)
	}
	s.goals[g.ID] = g
	return nil
}

// DeleteGoal removes a goal by id.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.goals[id]; !exists {
		return fmt.Errorf("DeleteGoal: %w: %s", store.ErrNotFound, id)
	}
	delete(s.goals, id)
	return nil
}

// Reset overwrites the transaction, budget and goal collections with fresh
// empty maps. The transcript is not part of the record collections and is
// left untouched.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// AppendMessage adds a message to the end of the transcript.
func (s *Store) AppendMessage(ctx context.Context, msg domain.ChatMessage) error {
	if msg.ID == "" {
		return fmt.Errorf("AppendMessage: message ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// ListMessages returns the transcript in append order.
func (s *Store) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ChatMessage, len(s.messages))
	copy(result, s.messages)
	return result, nil
}

// GetMessage retrieves one message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return domain.ChatMessage{}, fmt.Errorf("GetMessage: %w: %s", store.ErrNotFound, id)
}

// Ensure Store implements the store contracts.
var _ store.RecordStore = (*Store)(nil)
var _ store.TranscriptStore = (*Store)(nil)
