// Package assistant drives one conversational turn: user text in, parsed and
// persisted transaction plus an assistant reply out. All collaborator
// failures are absorbed here; a turn always ends with a reply.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/summary"
)

// Canned replies for the turn outcomes that do not come from the advisor.
const (
	// ClarificationReply is appended when the parser cannot extract a
	// complete record. Nothing is persisted in that case.
	ClarificationReply = "I couldn't work out the amount or category from that. " +
		"Could you rephrase it, e.g. \"spent 25 on groceries\"?"

	// FallbackAdvice replaces the advisor's reply when the advice call
	// fails. A turn never ends without a reply.
	FallbackAdvice = "Got it, your transaction has been recorded."

	// ApologyReply is appended when anything past the parse stage blows up.
	ApologyReply = "Sorry, something went wrong while processing that. Please try again."
)

// Assistant is the conversational orchestrator.
type Assistant struct {
	records    store.RecordStore
	transcript store.TranscriptStore
	parser     Parser
	advisor    Advisor
	log        zerolog.Logger

	processing atomic.Bool
	now        func() time.Time
}

// New wires an Assistant from its collaborators.
func New(records store.RecordStore, transcript store.TranscriptStore, parser Parser, advisor Advisor, log zerolog.Logger) *Assistant {
	return &Assistant{
		records:    records,
		transcript: transcript,
		parser:     parser,
		advisor:    advisor,
		log:        log,
		now:        time.Now,
	}
}

// Processing reports whether a turn is currently in flight. Turns are not
// serialized: a second submission may start before the first completes, and
// replies land in completion order.
func (a *Assistant) Processing() bool {
	return a.processing.Load()
}

// HandleMessage runs one full turn for the given user text and returns the
// assistant reply. The user message is appended to the transcript up front;
// every failure mode still produces a reply message.
func (a *Assistant) HandleMessage(ctx context.Context, text string) (domain.ChatMessage, error) {
	a.processing.Store(true)
	defer a.processing.Store(false)

	userMsg := a.newMessage(domain.RoleUser, text, "")
	if err := a.transcript.AppendMessage(ctx, userMsg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("HandleMessage: appending user message: %w", err)
	}

	reply := a.runTurn(ctx, text)
	if err := a.transcript.AppendMessage(ctx, reply); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("HandleMessage: appending reply: %w", err)
	}
	return reply, nil
}

// runTurn executes parse -> persist -> re-aggregate -> budget status ->
// advice. It is the turn boundary: panics and collaborator errors are
// converted into an apology reply, and a transaction is only persisted after
// a fully successful parse. Once persisted it is never rolled back; later
// failures merely lose the advice.
func (a *Assistant) runTurn(ctx context.Context, text string) (reply domain.ChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("Turn panicked")
			reply = a.newMessage(domain.RoleAssistant, ApologyReply, "")
		}
	}()

	result, err := a.parser.Parse(ctx, text, a.now())
	if err != nil {
		a.log.Error().Err(err).Msg("Parse call failed")
		return a.newMessage(domain.RoleAssistant, ApologyReply, "")
	}
	if result.Status != ParseSuccess || result.Record == nil {
		a.log.Info().Int("status", int(result.Status)).Msg("Parse incomplete, asking for clarification")
		return a.newMessage(domain.RoleAssistant, ClarificationReply, "")
	}

	rec := result.Record
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Timestamp:   rec.Date,
		Kind:        rec.Kind,
		Amount:      rec.Amount,
		Category:    rec.Category,
		Description: rec.Description,
	}
	if err := tx.Validate(); err != nil {
		a.log.Warn().Err(err).Msg("Parsed record failed validation")
		return a.newMessage(domain.RoleAssistant, ClarificationReply, "")
	}

	if err := a.records.AddTransaction(ctx, tx); err != nil {
		a.log.Error().Err(err).Msg("Persisting transaction failed")
		return a.newMessage(domain.RoleAssistant, ApologyReply, "")
	}

	txs, err := a.records.ListTransactions(ctx)
	if err != nil {
		a.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Re-aggregation read failed")
		return a.newMessage(domain.RoleAssistant, ApologyReply, "")
	}
	sum := summary.Compute(txs)

	statusText, err := a.budgetStatus(ctx, tx, &sum)
	if err != nil {
		a.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Budget lookup failed")
		return a.newMessage(domain.RoleAssistant, ApologyReply, "")
	}

	advice, err := a.advisor.Advise(ctx, tx, statusText)
	if err != nil || strings.TrimSpace(advice) == "" {
		a.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Advice call failed, using fallback")
		advice = FallbackAdvice
	}

	return a.newMessage(domain.RoleAssistant, advice, tx.ID)
}

// budgetStatus locates a budget for the transaction's category
// (case-insensitive) and renders the status text the advisor reacts to.
func (a *Assistant) budgetStatus(ctx context.Context, tx domain.Transaction, sum *domain.FinancialSummary) (string, error) {
	if tx.Kind == domain.KindIncome {
		return fmt.Sprintf("Income of %.2f recorded under %s.", tx.Amount, tx.Category), nil
	}

	budgets, err := a.records.ListBudgets(ctx)
	if err != nil {
		return "", fmt.Errorf("budgetStatus: listing budgets: %w", err)
	}

	var budget *domain.Budget
	for i := range budgets {
		if strings.EqualFold(budgets[i].Category, tx.Category) {
			budget = &budgets[i]
			break
		}
	}
	if budget == nil {
		return fmt.Sprintf("No budget is set for category %s.", tx.Category), nil
	}

	// Spent is read from the freshly recomputed summary, keyed by the
	// transaction's exact category label.
	spent, _ := sum.ExpenseFor(tx.Category)
	percent, _ := summary.Utilization(spent, budget.Limit)
	remaining := budget.Limit - spent

	if remaining < 0 {
		return fmt.Sprintf("Over budget for %s: spent %.2f of %.2f (%d%%), %.2f over the limit.",
			budget.Category, spent, budget.Limit, percent, -remaining), nil
	}
	return fmt.Sprintf("Within budget for %s: spent %.2f of %.2f (%d%%), %.2f remaining.",
		budget.Category, spent, budget.Limit, percent, remaining), nil
}

func (a *Assistant) newMessage(role domain.MessageRole, content, transactionID string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:            uuid.NewString(),
		Role:          role,
		Content:       content,
		Timestamp:     a.now(),
		TransactionID: transactionID,
	}
}
