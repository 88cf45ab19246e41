package trips

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/db"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// ListFilter narrows and orders the trip list.
type ListFilter struct {
	Status *models.TripStatus
	Search string
	SortBy string // created_at | start_date | title
}

// Repository defines trip persistence operations.
type Repository interface {
	CreateTrip(ctx context.Context, trip models.Trip) error
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (models.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Trip, error)
	UpdateTrip(ctx context.Context, trip models.Trip) error
	DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error
	GetTripStats(ctx context.Context, userID uuid.UUID) (models.TripStats, error)
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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tripColumns = "id, user_id, title, destination, start_date, end_date, status, rating, session_id, created_at, updated_at"

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip models.Trip) error {
	query := `
        INSERT INTO trips (
            id, user_id, title, destination, start_date, end_date,
            status, rating, session_id, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
        )
    `
	_, err := r.pgpool.Exec(ctx, query,
		trip.ID, trip.UserID, trip.Title, trip.Destination, trip.StartDate, trip.EndDate,
		trip.Status, trip.Rating, trip.SessionID, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create trip", zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (models.Trip, error) {
	query := `
        SELECT ` + tripColumns + `
        FROM trips
        WHERE id = $1 AND user_id = $2
    `
	row := r.pgpool.QueryRow(ctx, query, tripID, userID)
	trip, err := scanTrip(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.Trip{}, models.ErrNotFound
		}
		r.logger.Error("Failed to get trip", zap.Error(err))
		return models.Trip{}, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns the user's trips, filtered and ordered. The query is
// assembled with squirrel because every filter is optional.
func (r *RepositoryImpl) ListTrips(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Trip, error) {
	builder := psql.
		Select("id", "user_id", "title", "destination", "start_date", "end_date",
			"status", "rating", "session_id", "created_at", "updated_at").
		From("trips").
		Where(sq.Eq{"user_id": userID})

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"destination": pattern},
		})
	}

	switch filter.SortBy {
	case "start_date":
		builder = builder.OrderBy("start_date ASC NULLS LAST")
	case "title":
		builder = builder.OrderBy("title ASC")
	default:
		builder = builder.OrderBy("created_at DESC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build trips query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list trips", zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			r.logger.Error("Failed to scan trip", zap.Error(err))
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, &trip)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating trip rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return trips, nil
}

func (r *RepositoryImpl) UpdateTrip(ctx context.Context, trip models.Trip) error {
	query := `
        UPDATE trips
        SET title = $1, destination = $2, start_date = $3, end_date = $4,
            status = $5, rating = $6, updated_at = $7
        WHERE id = $8 AND user_id = $9
    `
	tag, err := r.pgpool.Exec(ctx, query,
		trip.Title, trip.Destination, trip.StartDate, trip.EndDate,
		trip.Status, trip.Rating, time.Now(), trip.ID, trip.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update trip", zap.Error(err))
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, tripID, userID)
	if err != nil {
		r.logger.Error("Failed to delete trip", zap.Error(err))
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) GetTripStats(ctx context.Context, userID uuid.UUID) (models.TripStats, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'planning'),
            COUNT(*) FILTER (WHERE status = 'ongoing'),
            COUNT(*) FILTER (WHERE status = 'completed')
        FROM trips
        WHERE user_id = $1
    `
	var stats models.TripStats
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&stats.Total, &stats.Planning, &stats.Ongoing, &stats.Completed,
	)
	if err != nil {
		r.logger.Error("Failed to get trip stats", zap.Error(err))
		return models.TripStats{}, fmt.Errorf("failed to get trip stats: %w", err)
	}
	return stats, nil
}

func scanTrip(row pgx.Row) (models.Trip, error) {
	var trip models.Trip
	err := row.Scan(
		&trip.ID, &trip.UserID, &trip.Title, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.Status, &trip.Rating, &trip.SessionID, &trip.CreatedAt, &trip.UpdatedAt,
	)
	return trip, err
}
