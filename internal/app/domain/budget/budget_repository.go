package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/db"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository defines budget persistence operations. All queries join
// through trips so a user can only reach their own budget rows.
type Repository interface {
	TripBelongsToUser(ctx context.Context, userID, tripID uuid.UUID) (bool, error)
	CreateBudgetItem(ctx context.Context, item models.BudgetItem) error
	ListBudgetItems(ctx context.Context, tripID uuid.UUID) ([]models.BudgetItem, error)
	DeleteBudgetItem(ctx context.Context, tripID, itemID uuid.UUID) error
	CreateExpense(ctx context.Context, expense models.Expense) error
	ListExpenses(ctx context.Context, tripID uuid.UUID) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, tripID, expenseID uuid.UUID) error
}

// RepositoryImpl holds the logger and database connection pool.
type RepositoryImpl struct {
	logger *zap.Logger
	pgpool db.Querier
}

func NewRepository(pgpool db.Querier, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *RepositoryImpl) TripBelongsToUser(ctx context.Context, userID, tripID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1 AND user_id = $2)`
	if err := r.pgpool.QueryRow(ctx, query, tripID, userID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check trip ownership", zap.Error(err))
		return false, fmt.Errorf("failed to check trip ownership: %w", err)
	}
	return exists, nil
}

func (r *RepositoryImpl) CreateBudgetItem(ctx context.Context, item models.BudgetItem) error {
	query := `
        INSERT INTO budget_items (id, trip_id, category, name, planned, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.pgpool.Exec(ctx, query,
		item.ID, item.TripID, item.Category, item.Name, item.Planned, item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create budget item", zap.Error(err))
		return fmt.Errorf("failed to create budget item: %w", err)
	}
	return nil
}

// ListBudgetItems returns the trip's budget lines with spent amounts summed
// from linked expenses.
func (r *RepositoryImpl) ListBudgetItems(ctx context.Context, tripID uuid.UUID) ([]models.BudgetItem, error) {
	query := `
        SELECT b.id, b.trip_id, b.category, b.name, b.planned,
               COALESCE(SUM(e.amount), 0) AS spent,
               b.created_at
        FROM budget_items b
        LEFT JOIN expenses e ON e.budget_item_id = b.id
        WHERE b.trip_id = $1
        GROUP BY b.id
        ORDER BY b.created_at
    `
	rows, err := r.pgpool.Query(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to list budget items", zap.Error(err))
		return nil, fmt.Errorf("failed to list budget items: %w", err)
	}
	defer rows.Close()

	var items []models.BudgetItem
	for rows.Next() {
		var item models.BudgetItem
		err := rows.Scan(&item.ID, &item.TripID, &item.Category, &item.Name,
			&item.Planned, &item.Spent, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget item rows: %w", err)
	}
	return items, nil
}

func (r *RepositoryImpl) DeleteBudgetItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM budget_items WHERE id = $1 AND trip_id = $2`, itemID, tripID)
	if err != nil {
		r.logger.Error("Failed to delete budget item", zap.Error(err))
		return fmt.Errorf("failed to delete budget item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) CreateExpense(ctx context.Context, expense models.Expense) error {
	query := `
        INSERT INTO expenses (id, trip_id, budget_item_id, amount, note, spent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.pgpool.Exec(ctx, query,
		expense.ID, expense.TripID, expense.BudgetItemID, expense.Amount,
		expense.Note, expense.SpentAt, expense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) ListExpenses(ctx context.Context, tripID uuid.UUID) ([]models.Expense, error) {
	query := `
        SELECT id, trip_id, budget_item_id, amount, note, spent_at, created_at
        FROM expenses
        WHERE trip_id = $1
        ORDER BY spent_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		err := rows.Scan(&e.ID, &e.TripID, &e.BudgetItemID, &e.Amount, &e.Note, &e.SpentAt, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", err)
	}
	return expenses, nil
}

func (r *RepositoryImpl) DeleteExpense(ctx context.Context, tripID, expenseID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND trip_id = $2`, expenseID, tripID)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
