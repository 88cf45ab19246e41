package budget

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

type fakeBudgetRepo struct {
	ownedTrips map[uuid.UUID]uuid.UUID // trip -> owner
	items      map[uuid.UUID]models.BudgetItem
	expenses   map[uuid.UUID]models.Expense
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{
		ownedTrips: make(map[uuid.UUID]uuid.UUID),
		items:      make(map[uuid.UUID]models.BudgetItem),
		expenses:   make(map[uuid.UUID]models.Expense),
	}
}

func (f *fakeBudgetRepo) TripBelongsToUser(_ context.Context, userID, tripID uuid.UUID) (bool, error) {
	return f.ownedTrips[tripID] == userID, nil
}

func (f *fakeBudgetRepo) CreateBudgetItem(_ context.Context, item models.BudgetItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeBudgetRepo) ListBudgetItems(_ context.Context, tripID uuid.UUID) ([]models.BudgetItem, error) {
	var out []models.BudgetItem
	for _, item := range f.items {
		if item.TripID != tripID {
			continue
		}
		for _, e := range f.expenses {
			if e.BudgetItemID != nil && *e.BudgetItemID == item.ID {
				item.Spent += e.Amount
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeBudgetRepo) DeleteBudgetItem(_ context.Context, tripID, itemID uuid.UUID) error {
	item, ok := f.items[itemID]
	if !ok || item.TripID != tripID {
		return models.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeBudgetRepo) CreateExpense(_ context.Context, expense models.Expense) error {
	f.expenses[expense.ID] = expense
	return nil
}

func (f *fakeBudgetRepo) ListExpenses(_ context.Context, tripID uuid.UUID) ([]models.Expense, error) {
	var out []models.Expense
	for _, e := range f.expenses {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBudgetRepo) DeleteExpense(_ context.Context, tripID, expenseID uuid.UUID) error {
	e, ok := f.expenses[expenseID]
	if !ok || e.TripID != tripID {
		return models.ErrNotFound
	}
	delete(f.expenses, expenseID)
	return nil
}

func newBudgetFixture() (*ServiceImpl, *fakeBudgetRepo, uuid.UUID, uuid.UUID) {
	repo := newFakeBudgetRepo()
	userID, tripID := uuid.New(), uuid.New()
	repo.ownedTrips[tripID] = userID
	return NewService(repo, zap.NewNop()), repo, userID, tripID
}

func TestAddBudgetItemValidation(t *testing.T) {
	svc, _, userID, tripID := newBudgetFixture()

	_, err := svc.AddBudgetItem(context.Background(), userID, tripID, "food", "Street food", -10)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestBudgetOwnershipEnforced(t *testing.T) {
	svc, _, _, tripID := newBudgetFixture()
	intruder := uuid.New()

	_, err := svc.AddBudgetItem(context.Background(), intruder, tripID, "food", "Street food", 200)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.GetSummary(context.Background(), intruder, tripID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetSummaryTotals(t *testing.T) {
	svc, _, userID, tripID := newBudgetFixture()
	ctx := context.Background()

	food, err := svc.AddBudgetItem(ctx, userID, tripID, "food", "Street food", 300)
	require.NoError(t, err)
	_, err = svc.AddBudgetItem(ctx, userID, tripID, "transport", "Taxis", 150)
	require.NoError(t, err)

	_, err = svc.AddExpense(ctx, userID, tripID, &food.ID, 45.5, "noodles", nil)
	require.NoError(t, err)
	// an unlinked expense still counts toward the spent total
	_, err = svc.AddExpense(ctx, userID, tripID, nil, 20, "souvenir", nil)
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, userID, tripID)
	require.NoError(t, err)
	assert.Equal(t, 450.0, summary.TotalPlanned)
	assert.Equal(t, 65.5, summary.TotalSpent)
	assert.Len(t, summary.Items, 2)

	for _, item := range summary.Items {
		if item.ID == food.ID {
			assert.Equal(t, 45.5, item.Spent)
		}
	}
}

func TestExpenseValidation(t *testing.T) {
	svc, _, userID, tripID := newBudgetFixture()

	_, err := svc.AddExpense(context.Background(), userID, tripID, nil, 0, "free lunch", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRemoveExpense(t *testing.T) {
	svc, repo, userID, tripID := newBudgetFixture()
	ctx := context.Background()

	e, err := svc.AddExpense(ctx, userID, tripID, nil, 12, "tea", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveExpense(ctx, userID, tripID, e.ID))
	assert.Empty(t, repo.expenses)

	err = svc.RemoveExpense(ctx, userID, tripID, e.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
