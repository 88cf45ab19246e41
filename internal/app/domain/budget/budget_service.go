// Package budget tracks planned spending and recorded expenses per trip.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for budget operations.
type Service interface {
	AddBudgetItem(ctx context.Context, userID, tripID uuid.UUID, category, name string, planned float64) (*models.BudgetItem, error)
	RemoveBudgetItem(ctx context.Context, userID, tripID, itemID uuid.UUID) error
	AddExpense(ctx context.Context, userID, tripID uuid.UUID, budgetItemID *uuid.UUID, amount float64, note string, spentAt *time.Time) (*models.Expense, error)
	RemoveExpense(ctx context.Context, userID, tripID, expenseID uuid.UUID) error
	ListExpenses(ctx context.Context, userID, tripID uuid.UUID) ([]models.Expense, error)
	GetSummary(ctx context.Context, userID, tripID uuid.UUID) (*models.BudgetSummary, error)
}

// ServiceImpl provides the implementation for Service.
type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) AddBudgetItem(ctx context.Context, userID, tripID uuid.UUID, category, name string, planned float64) (*models.BudgetItem, error) {
	if planned < 0 {
		return nil, fmt.Errorf("%w: planned amount cannot be negative", models.ErrValidation)
	}
	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		return nil, err
	}

	item := models.BudgetItem{
		ID:        uuid.New(),
		TripID:    tripID,
		Category:  category,
		Name:      name,
		Planned:   planned,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateBudgetItem(ctx, item); err != nil {
		s.logger.Error("Failed to add budget item", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, err
	}
	return &item, nil
}

func (s *ServiceImpl) RemoveBudgetItem(ctx context.Context, userID, tripID, itemID uuid.UUID) error {
	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		return err
	}
	return s.repo.DeleteBudgetItem(ctx, tripID, itemID)
}

func (s *ServiceImpl) AddExpense(ctx context.Context, userID, tripID uuid.UUID, budgetItemID *uuid.UUID, amount float64, note string, spentAt *time.Time) (*models.Expense, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", models.ErrValidation)
	}
	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		return nil, err
	}

	now := time.Now()
	when := now
	if spentAt != nil {
		when = *spentAt
	}
	expense := models.Expense{
		ID:           uuid.New(),
		TripID:       tripID,
		BudgetItemID: budgetItemID,
		Amount:       amount,
		Note:         note,
		SpentAt:      when,
		CreatedAt:    now,
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("Failed to add expense", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, err
	}
	return &expense, nil
}

func (s *ServiceImpl) RemoveExpense(ctx context.Context, userID, tripID, expenseID uuid.UUID) error {
	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		return err
	}
	return s.repo.DeleteExpense(ctx, tripID, expenseID)
}

func (s *ServiceImpl) ListExpenses(ctx context.Context, userID, tripID uuid.UUID) ([]models.Expense, error) {
	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, tripID)
}

// GetSummary aggregates the trip's budget lines and expense totals. Expenses
// without a budget item still count toward the spent total.
func (s *ServiceImpl) GetSummary(ctx context.Context, userID, tripID uuid.UUID) (*models.BudgetSummary, error) {
	ctx, span := otel.Tracer("budgetService").Start(ctx, "GetSummary", trace.WithAttributes(
		attribute.String("trip_id", tripID.String()),
	))
	defer span.End()

	if err := s.ensureOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items, err := s.repo.ListBudgetItems(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list budget items")
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list expenses")
		return nil, err
	}

	summary := &models.BudgetSummary{TripID: tripID, Items: items}
	for _, item := range items {
		summary.TotalPlanned += item.Planned
	}
	for _, e := range expenses {
		summary.TotalSpent += e.Amount
	}

	span.SetStatus(codes.Ok, "Summary built")
	return summary, nil
}

func (s *ServiceImpl) ensureOwnership(ctx context.Context, userID, tripID uuid.UUID) error {
	owns, err := s.repo.TripBelongsToUser(ctx, userID, tripID)
	if err != nil {
		return err
	}
	if !owns {
		return models.ErrNotFound
	}
	return nil
}
