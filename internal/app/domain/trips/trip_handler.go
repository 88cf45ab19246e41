package trips

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

type TripHandlers struct {
	service Service
	logger  *zap.Logger
}

func NewTripHandlers(service Service, logger *zap.Logger) *TripHandlers {
	return &TripHandlers{
		service: service,
		logger:  logger,
	}
}

// HandleListTrips returns the user's trips. Supports ?status=, ?search= and
// ?sort_by= query parameters.
func (h *TripHandlers) HandleListTrips(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter := ListFilter{
		Search: c.Query("search"),
		SortBy: c.DefaultQuery("sort_by", "created_at"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TripStatus(raw)
		switch status {
		case models.TripStatusPlanning, models.TripStatusOngoing, models.TripStatusCompleted:
			filter.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trip status"})
			return
		}
	}

	trips, err := h.service.ListTrips(c.Request.Context(), userID, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// HandleTripStats returns the dashboard counters.
func (h *TripHandlers) HandleTripStats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetTripStats(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleGetTrip returns one trip.
func (h *TripHandlers) HandleGetTrip(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// HandleCreateTrip creates a trip in the planning state.
func (h *TripHandlers) HandleCreateTrip(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var params models.CreateTripParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and destination are required"})
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), userID, params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// HandleUpdateTrip applies a partial update.
func (h *TripHandlers) HandleUpdateTrip(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	var params models.UpdateTripParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip payload"})
		return
	}

	trip, err := h.service.UpdateTrip(c.Request.Context(), userID, tripID, params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// HandleRateTrip records a rating for a completed trip.
func (h *TripHandlers) HandleRateTrip(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	rating, err := strconv.Atoi(c.Query("rating"))
	if err != nil {
		var body struct {
			Rating int `json:"rating" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rating is required"})
			return
		}
		rating = body.Rating
	}

	trip, err := h.service.RateTrip(c.Request.Context(), userID, tripID, rating)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// HandleDeleteTrip removes a trip and its budget records.
func (h *TripHandlers) HandleDeleteTrip(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTrip(c.Request.Context(), userID, tripID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandlers) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *TripHandlers) tripID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *TripHandlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Trip operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
