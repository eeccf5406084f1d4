// Package bigquery implements the record store on BigQuery tables, for
// deployments where the assistant's ledger must outlive the process.
package bigquery

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// TransactionRow mirrors the transactions table schema.
type TransactionRow struct {
	TransactionID string     `bigquery:"transaction_id"` // REQUIRED
	Timestamp     time.Time  `bigquery:"ts"`             // REQUIRED
	TxDate        civil.Date `bigquery:"tx_date"`        // REQUIRED, partition column
	Kind          string     `bigquery:"kind"`           // REQUIRED
	Amount        float64    `bigquery:"amount"`         // REQUIRED
	Category      string     `bigquery:"category"`       // REQUIRED
	Description   string     `bigquery:"description"`    // NULLABLE
}

// BudgetRow mirrors the budgets table schema.
type BudgetRow struct {
	BudgetID string  `bigquery:"budget_id"` // REQUIRED
	Category string  `bigquery:"category"`  // REQUIRED
	Limit    float64 `bigquery:"limit_amount"`
	Period   string  `bigquery:"period"`
}

// GoalRow mirrors the goals table schema.
type GoalRow struct {
	GoalID        string  `bigquery:"goal_id"` // REQUIRED
	Name          string  `bigquery:"name"`    // REQUIRED
	TargetAmount  float64 `bigquery:"target_amount"`
	CurrentAmount float64 `bigquery:"current_amount"`
}

func transactionToRow(tx domain.Transaction) TransactionRow {
	return TransactionRow{
		TransactionID: tx.ID,
		Timestamp:     tx.Timestamp,
		TxDate:        civil.DateOf(tx.Timestamp),
		Kind:          string(tx.Kind),
		Amount:        tx.Amount,
		Category:      tx.Category,
		Description:   tx.Description,
	}
}

func (r TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.TransactionID,
		Timestamp:   r.Timestamp,
		Kind:        domain.TransactionKind(r.Kind),
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
}

func budgetToRow(b domain.Budget) BudgetRow {
	return BudgetRow{
		BudgetID: b.ID,
		Category: b.Category,
		Limit:    b.Limit,
		Period:   string(b.Period),
	}
}

func (r BudgetRow) toDomain() domain.Budget {
	return domain.Budget{
		ID:       r.BudgetID,
		Category: r.Category,
		Limit:    r.Limit,
		Period:   domain.BudgetPeriod(r.Period),
	}
}

func goalToRow(g domain.Goal) GoalRow {
	return GoalRow{
		GoalID:        g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
	}
}

func (r GoalRow) toDomain() domain.Goal {
	return domain.Goal{
		ID:            r.GoalID,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
	}
}
