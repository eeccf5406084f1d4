package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/summary"
)

// RecordsHandler handles CRUD over transactions, budgets and goals, the
// derived summary, and the reset operation.
type RecordsHandler struct {
	records store.RecordStore
	log     zerolog.Logger
}

// NewRecordsHandler creates a records handler.
func NewRecordsHandler(records store.RecordStore, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{records: records, log: log}
}

func (h *RecordsHandler) writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidKind) ||
		errors.Is(err, domain.ErrNonPositiveAmount) ||
		errors.Is(err, domain.ErrEmptyCategory) ||
		errors.Is(err, domain.ErrNonPositiveLimit) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg(msg)
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}

// ListTransactions handles GET /api/transactions
func (h *RecordsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.records.ListTransactions(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Failed to list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *RecordsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx.ID = uuid.New().String()
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}

	if err := h.records.AddTransaction(r.Context(), tx); err != nil {
		h.writeStoreError(w, err, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *RecordsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx.ID = id

	if err := h.records.UpdateTransaction(r.Context(), tx); err != nil {
		h.writeStoreError(w, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *RecordsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.records.DeleteTransaction(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBudgets handles GET /api/budgets
func (h *RecordsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.records.ListBudgets(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Failed to list budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}

// CreateBudget handles POST /api/budgets
func (h *RecordsHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var b domain.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.ID = uuid.New().String()
	if b.Period == "" {
		b.Period = domain.PeriodMonthly
	}

	if err := h.records.AddBudget(r.Context(), b); err != nil {
		h.writeStoreError(w, err, "Failed to create budget")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, b)
}

// UpdateBudget handles PUT /api/budgets/{id}
func (h *RecordsHandler) UpdateBudget(w http.ResponseWriter, r *http.Request, id string) {
	var b domain.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.ID = id

	if err := h.records.UpdateBudget(r.Context(), b); err != nil {
		h.writeStoreError(w, err, "Failed to update budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, b)
}

// DeleteBudget handles DELETE /api/budgets/{id}
func (h *RecordsHandler) DeleteBudget(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.records.DeleteBudget(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGoals handles GET /api/goals
func (h *RecordsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.records.ListGoals(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Failed to list goals")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"count": len(goals),
	})
}

// CreateGoal handles POST /api/goals
func (h *RecordsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var g domain.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	g.ID = uuid.New().String()

	if err := h.records.AddGoal(r.Context(), g); err != nil {
		h.writeStoreError(w, err, "Failed to create goal")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, g)
}

// UpdateGoal handles PUT /api/goals/{id}
func (h *RecordsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request, id string) {
	var g domain.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	g.ID = id

	if err := h.records.UpdateGoal(r.Context(), g); err != nil {
		h.writeStoreError(w, err, "Failed to update goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, g)
}

// DeleteGoal handles DELETE /api/goals/{id}
func (h *RecordsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.records.DeleteGoal(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/summary. The summary is recomputed from the full
// transaction list on every request rather than cached.
func (h *RecordsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	txs, err := h.records.ListTransactions(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Failed to compute summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary.Compute(txs))
}

// Reset handles POST /api/reset
func (h *RecordsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Reset(r.Context()); err != nil {
		h.writeStoreError(w, err, "Failed to reset records")
		return
	}
	h.log.Info().Msg("All records cleared")
	w.WriteHeader(http.StatusNoContent)
}
