package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
)

const (
	transactionsTable = "transactions"
	budgetsTable      = "budgets"
	goalsTable        = "goals"
)

// Store is a RecordStore backed by BigQuery tables. All writes go through
// parameterized DML so rows are immediately visible to later reads, at the
// cost of per-statement job latency.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewStore connects a record store to the given project and dataset. It
// assumes Application Default Credentials are configured.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: bigquery client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) tableRef(table string) string {
	return "`" + s.projectID + "." + s.datasetID + "." + table + "`"
}

// runDML executes a DML statement and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, query string, params []bigquery.QueryParameter) (int64, error) {
	q := s.client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// ListTransactions returns all transactions ordered by timestamp, then id.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	q := s.client.Query(`
		SELECT transaction_id, ts, tx_date, kind, amount, category, description
		FROM ` + s.tableRef(transactionsTable) + `
		ORDER BY ts, transaction_id
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		txs = append(txs, r.toDomain())
	}
	return txs, nil
}

// AddTransaction inserts a validated transaction.
func (s *Store) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}

	row := transactionToRow(tx)
	_, err := s.runDML(ctx, `
		INSERT INTO `+s.tableRef(transactionsTable)+`
			(transaction_id, ts, tx_date, kind, amount, category, description)
		VALUES (@transaction_id, @ts, @tx_date, @kind, @amount, @category, @description)
	`, []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "ts", Value: row.Timestamp},
		{Name: "tx_date", Value: row.TxDate},
		{Name: "kind", Value: row.Kind},
		{Name: "amount", Value: row.Amount},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
	})
	if err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}
	return nil
}

// UpdateTransaction replaces a stored transaction by id.
func (s *Store) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}

	row := transactionToRow(tx)
	affected, err := s.runDML(ctx, `
		UPDATE `+s.tableRef(transactionsTable)+`
		SET ts = @ts, tx_date = @tx_date, kind = @kind, amount = @amount,
			category = @category, description = @description
		WHERE transaction_id = @transaction_id
	`, []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "ts", Value: row.Timestamp},
		{Name: "tx_date", Value: row.TxDate},
		{Name: "kind", Value: row.Kind},
		{Name: "amount", Value: row.Amount},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
	})
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	affected, err := s.runDML(ctx, `
		DELETE FROM `+s.tableRef(transactionsTable)+`
		WHERE transaction_id = @transaction_id
	`, []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteTransaction: transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListBudgets returns all budgets ordered by category.
func (s *Store) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	q := s.client.Query(`
		SELECT budget_id, category, limit_amount, period
		FROM ` + s.tableRef(budgetsTable) + `
		ORDER BY category
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: query read: %w", err)
	}

	var budgets []domain.Budget
	for {
		var r BudgetRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: iter next: %w", err)
		}
		budgets = append(budgets, r.toDomain())
	}
	return budgets, nil
}

// AddBudget inserts a validated budget.
func (s *Store) AddBudget(ctx context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("AddBudget: %w", err)
	}

	row := budgetToRow(b)
	_, err := s.runDML(ctx, `
		INSERT INTO `+s.tableRef(budgetsTable)+`
			(budget_id, category, limit_amount, period)
		VALUES (@budget_id, @category, @limit_amount, @period)
	`, []bigquery.QueryParameter{
		{Name: "budget_id", Value: row.BudgetID},
		{Name: "category", Value: row.Category},
		{Name: "limit_amount", Value: row.Limit},
		{Name: "period", Value: row.Period},
	})
	if err != nil {
		return fmt.Errorf("AddBudget: %w", err)
	}
	return nil
}

// UpdateBudget replaces a stored budget by id.
func (s *Store) UpdateBudget(ctx context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}

	row := budgetToRow(b)
	affected, err := s.runDML(ctx, `
		UPDATE `+s.tableRef(budgetsTable)+`
		SET category = @category, limit_amount = @limit_amount, period = @period
		WHERE budget_id = @budget_id
	`, []bigquery.QueryParameter{
		{Name: "budget_id", Value: row.BudgetID},
		{Name: "category", Value: row.Category},
		{Name: "limit_amount", Value: row.Limit},
		{Name: "period", Value: row.Period},
	})
	if err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateBudget: budget %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteBudget removes a budget by id.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	affected, err := s.runDML(ctx, `
		DELETE FROM `+s.tableRef(budgetsTable)+`
		WHERE budget_id = @budget_id
	`, []bigquery.QueryParameter{
		{Name: "budget_id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteBudget: budget %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListGoals returns all goals ordered by name.
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	q := s.client.Query(`
		SELECT goal_id, name, target_amount, current_amount
		FROM ` + s.tableRef(goalsTable) + `
		ORDER BY name
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query read: %w", err)
	}

	var goals []domain.Goal
	for {
		var r GoalRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoals: iter next: %w", err)
		}
		goals = append(goals, r.toDomain())
	}
	return goals, nil
}

// AddGoal inserts a goal.
func (s *Store) AddGoal(ctx context.Context, g domain.Goal) error {
	row := goalToRow(g)
	_, err := s.runDML(ctx, `
		INSERT INTO `+s.tableRef(goalsTable)+`
			(goal_id, name, target_amount, current_amount)
		VALUES (@goal_id, @name, @target_amount, @current_amount)
	`, []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "name", Value: row.Name},
		{Name: "target_amount", Value: row.TargetAmount},
		{Name: "current_amount", Value: row.CurrentAmount},
	})
	if err != nil {
		return fmt.Errorf("AddGoal: %w", err)
	}
	return nil
}

// UpdateGoal replaces a stored goal by id.
func (s *Store) UpdateGoal(ctx context.Context, g domain.Goal) error {
	row := goalToRow(g)
	affected, err := s.runDML(ctx, `
		UPDATE `+s.tableRef(goalsTable)+`
		SET name = @name, target_amount = @target_amount, current_amount = @current_amount
		WHERE goal_id = @goal_id
	`, []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "name", Value: row.Name},
		{Name: "target_amount", Value: row.TargetAmount},
		{Name: "current_amount", Value: row.CurrentAmount},
	})
	if err != nil {
		return fmt.Errorf("UpdateGoal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateGoal: goal %s: %w", g.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteGoal removes a goal by id.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	affected, err := s.runDML(ctx, `
		DELETE FROM `+s.tableRef(goalsTable)+`
		WHERE goal_id = @goal_id
	`, []bigquery.QueryParameter{
		{Name: "goal_id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteGoal: goal %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// Reset clears transactions, budgets and goals. The tables themselves stay
// in place.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{transactionsTable, budgetsTable, goalsTable} {
		if _, err := s.runDML(ctx, `DELETE FROM `+s.tableRef(table)+` WHERE true`, nil); err != nil {
			return fmt.Errorf("Reset: clearing %s: %w", table, err)
		}
	}
	return nil
}

var _ store.RecordStore = (*Store)(nil)
