package trips

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func sampleTrip(userID uuid.UUID) models.Trip {
	now := time.Now()
	return models.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "Jiangnan loop",
		Destination: "Nanjing",
		Status:      models.TripStatusPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func tripRows(trips ...models.Trip) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "title", "destination", "start_date", "end_date",
		"status", "rating", "session_id", "created_at", "updated_at",
	})
	for _, tr := range trips {
		rows.AddRow(tr.ID, tr.UserID, tr.Title, tr.Destination, tr.StartDate, tr.EndDate,
			tr.Status, tr.Rating, tr.SessionID, tr.CreatedAt, tr.UpdatedAt)
	}
	return rows
}

func TestCreateTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	trip := sampleTrip(uuid.New())

	mock.ExpectExec("INSERT INTO trips").
		WithArgs(trip.ID, trip.UserID, trip.Title, trip.Destination, trip.StartDate, trip.EndDate,
			trip.Status, trip.Rating, trip.SessionID, trip.CreatedAt, trip.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateTrip(context.Background(), trip))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTripNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM trips").
		WithArgs(tripID, userID).
		WillReturnRows(tripRows())

	_, err := repo.GetTrip(context.Background(), userID, tripID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTripsWithStatusFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	trip := sampleTrip(userID)
	status := models.TripStatusPlanning

	mock.ExpectQuery("SELECT (.+) FROM trips WHERE user_id = (.+) AND status = (.+) ORDER BY created_at DESC").
		WithArgs(userID.String(), status).
		WillReturnRows(tripRows(trip))

	trips, err := repo.ListTrips(context.Background(), userID, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, trip.ID, trips[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTripsWithSearch(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM trips WHERE user_id = (.+) AND \(title ILIKE (.+) OR destination ILIKE (.+)\)`).
		WithArgs(userID.String(), "%temple%", "%temple%").
		WillReturnRows(tripRows())

	trips, err := repo.ListTrips(context.Background(), userID, ListFilter{Search: "temple"})
	require.NoError(t, err)
	assert.Empty(t, trips)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTripNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	trip := sampleTrip(uuid.New())

	mock.ExpectExec("UPDATE trips").
		WithArgs(trip.Title, trip.Destination, trip.StartDate, trip.EndDate,
			trip.Status, trip.Rating, pgxmock.AnyArg(), trip.ID, trip.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateTrip(context.Background(), trip)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, tripID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM trips").
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteTrip(context.Background(), userID, tripID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTripStats(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM trips").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count", "planning", "ongoing", "completed"}).
			AddRow(5, 2, 1, 2))

	stats, err := repo.GetTripStats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStats{Total: 5, Planning: 2, Ongoing: 1, Completed: 2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
