package models

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus enumerates trip lifecycle states.
type TripStatus string

const (
	TripStatusPlanning  TripStatus = "planning"
	TripStatusOngoing   TripStatus = "ongoing"
	TripStatusCompleted TripStatus = "completed"
)

// Trip is a user's planned or completed journey.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Destination string     `json:"destination"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      TripStatus `json:"status"`
	Rating      *int       `json:"rating,omitempty"`
	SessionID   *string    `json:"session_id,omitempty"` // chat session the itinerary came from
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TripStats is the aggregate view shown on the trips dashboard.
type TripStats struct {
	Total     int `json:"total"`
	Planning  int `json:"planning"`
	Ongoing   int `json:"ongoing"`
	Completed int `json:"completed"`
}

// CreateTripParams carries the fields accepted when creating a trip.
type CreateTripParams struct {
	Title       string     `json:"title" binding:"required"`
	Destination string     `json:"destination" binding:"required"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	SessionID   *string    `json:"session_id"`
}

// UpdateTripParams carries optional fields for a trip update.
type UpdateTripParams struct {
	Title       *string     `json:"title"`
	Destination *string     `json:"destination"`
	StartDate   *time.Time  `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Status      *TripStatus `json:"status"`
}

// BudgetItem is a planned spending category inside a trip budget.
type BudgetItem struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Planned   float64   `json:"planned"`
	Spent     float64   `json:"spent"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense is a recorded spend, optionally attached to a budget item.
type Expense struct {
	ID           uuid.UUID  `json:"id"`
	TripID       uuid.UUID  `json:"trip_id"`
	BudgetItemID *uuid.UUID `json:"budget_item_id,omitempty"`
	Amount       float64    `json:"amount"`
	Note         string     `json:"note"`
	SpentAt      time.Time  `json:"spent_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BudgetSummary aggregates a trip's budget for the budget screen.
type BudgetSummary struct {
	TripID       uuid.UUID    `json:"trip_id"`
	TotalPlanned float64      `json:"total_planned"`
	TotalSpent   float64      `json:"total_spent"`
	Items        []BudgetItem `json:"items"`
}

// UpdateProfileParams carries optional profile fields; nil means unchanged.
type UpdateProfileParams struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
	Phone    *string `json:"phone"`
}

// User is an authenticated account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
