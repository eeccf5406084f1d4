package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
)

func newTx(id string, ts time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Timestamp: ts,
		Kind:      domain.KindExpense,
		Amount:    10,
		Category:  "Food",
	}
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddTransaction(ctx, newTx("t2", base.Add(time.Hour))))
	require.NoError(t, s.AddTransaction(ctx, newTx("t1", base)))

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID, "list is ordered by timestamp")

	updated := newTx("t1", base)
	updated.Amount = 99
	require.NoError(t, s.UpdateTransaction(ctx, updated))
	txs, _ = s.ListTransactions(ctx)
	assert.Equal(t, 99.0, txs[0].Amount)

	require.NoError(t, s.DeleteTransaction(ctx, "t2"))
	txs, _ = s.ListTransactions(ctx)
	assert.Len(t, txs, 1)

	err = s.DeleteTransaction(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	err = s.UpdateTransaction(ctx, newTx("missing", base))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	bad := newTx("t1", time.Now())
	bad.Amount = -5
	require.Error(t, s.AddTransaction(ctx, bad))

	noID := newTx("", time.Now())
	require.Error(t, s.AddTransaction(ctx, noID))

	txs, _ := s.ListTransactions(ctx)
	assert.Empty(t, txs)
}

func TestResetOverwritesWithEmptyCollections(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AddTransaction(ctx, newTx("t1", time.Now())))
	require.NoError(t, s.AddBudget(ctx, domain.Budget{ID: "b1", Category: "Food", Limit: 100}))
	require.NoError(t, s.AddGoal(ctx, domain.Goal{ID: "g1", Name: "Car", TargetAmount: 5000}))
	require.NoError(t, s.AppendMessage(ctx, domain.ChatMessage{ID: "m1", Role: domain.RoleUser, Content: "hi"}))

	require.NoError(t, s.Reset(ctx))

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
	budgets, err := s.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, budgets)
	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	// Collections stay usable after reset; nothing needs reseeding.
	require.NoError(t, s.AddTransaction(ctx, newTx("t2", time.Now())))

	// The transcript is not a record collection and survives a reset.
	msgs, err := s.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestTranscriptAppendOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.AppendMessage(ctx, domain.ChatMessage{ID: id, Role: domain.RoleUser, Content: id}))
	}

	msgs, err := s.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})

	msg, err := s.GetMessage(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "m2", msg.Content)

	_, err = s.GetMessage(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.AddTransaction(ctx, newTx("t1", time.Now())))

	txs, _ := s.ListTransactions(ctx)
	txs[0].Amount = 12345

	again, _ := s.ListTransactions(ctx)
	assert.Equal(t, 10.0, again[0].Amount, "mutating a listed value must not touch stored state")
}
