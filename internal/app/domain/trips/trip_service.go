// Package trips manages a user's saved trips: CRUD, filtering and the
// dashboard stats, each trip optionally linked to the chat session whose
// itinerary produced it.
package trips

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

// Service defines the business logic contract for trip operations.
type Service interface {
	CreateTrip(ctx context.Context, userID uuid.UUID, params models.CreateTripParams) (*models.Trip, error)
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Trip, error)
	UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error)
	RateTrip(ctx context.Context, userID, tripID uuid.UUID, rating int) (*models.Trip, error)
	DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error
	GetTripStats(ctx context.Context, userID uuid.UUID) (models.TripStats, error)
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

func (s *ServiceImpl) CreateTrip(ctx context.Context, userID uuid.UUID, params models.CreateTripParams) (*models.Trip, error) {
	ctx, span := otel.Tracer("tripsService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("destination", params.Destination),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateTrip"), zap.String("user_id", userID.String()))

	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", models.ErrValidation)
	}

	now := time.Now()
	trip := models.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       params.Title,
		Destination: params.Destination,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Status:      models.TripStatusPlanning,
		SessionID:   params.SessionID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		l.Error("Failed to create trip", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create trip")
		return nil, fmt.Errorf("error creating trip: %w", err)
	}

	l.Info("Trip created", zap.String("trip_id", trip.ID.String()))
	span.SetStatus(codes.Ok, "Trip created")
	return &trip, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error) {
	trip, err := s.repo.GetTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (s *ServiceImpl) ListTrips(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Trip, error) {
	ctx, span := otel.Tracer("tripsService").Start(ctx, "ListTrips", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	trips, err := s.repo.ListTrips(ctx, userID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list trips")
		return nil, fmt.Errorf("error listing trips: %w", err)
	}
	span.SetStatus(codes.Ok, "Trips listed")
	return trips, nil
}

func (s *ServiceImpl) UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error) {
	ctx, span := otel.Tracer("tripsService").Start(ctx, "UpdateTrip", trace.WithAttributes(
		attribute.String("trip_id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "UpdateTrip"), zap.String("trip_id", tripID.String()))

	trip, err := s.repo.GetTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		trip.Title = *params.Title
	}
	if params.Destination != nil {
		trip.Destination = *params.Destination
	}
	if params.StartDate != nil {
		trip.StartDate = params.StartDate
	}
	if params.EndDate != nil {
		trip.EndDate = params.EndDate
	}
	if params.Status != nil {
		switch *params.Status {
		case models.TripStatusPlanning, models.TripStatusOngoing, models.TripStatusCompleted:
			trip.Status = *params.Status
		default:
			return nil, fmt.Errorf("%w: unknown trip status %q", models.ErrValidation, *params.Status)
		}
	}
	if trip.StartDate != nil && trip.EndDate != nil && trip.EndDate.Before(*trip.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", models.ErrValidation)
	}

	if err := s.repo.UpdateTrip(ctx, trip); err != nil {
		l.Error("Failed to update trip", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update trip")
		return nil, err
	}

	trip.UpdatedAt = time.Now()
	span.SetStatus(codes.Ok, "Trip updated")
	return &trip, nil
}

// RateTrip records a 1-5 rating; only completed trips can be rated.
func (s *ServiceImpl) RateTrip(ctx context.Context, userID, tripID uuid.UUID, rating int) (*models.Trip, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", models.ErrValidation)
	}

	trip, err := s.repo.GetTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusCompleted {
		return nil, fmt.Errorf("%w: only completed trips can be rated", models.ErrValidation)
	}

	trip.Rating = &rating
	if err := s.repo.UpdateTrip(ctx, trip); err != nil {
		s.logger.Error("Failed to rate trip", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, err
	}
	return &trip, nil
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	if err := s.repo.DeleteTrip(ctx, userID, tripID); err != nil {
		return err
	}
	s.logger.Info("Trip deleted", zap.String("trip_id", tripID.String()))
	return nil
}

func (s *ServiceImpl) GetTripStats(ctx context.Context, userID uuid.UUID) (models.TripStats, error) {
	return s.repo.GetTripStats(ctx, userID)
}
