package planning

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/observability/metrics"
)

// PlanFetcher retrieves the itinerary produced by a chat session.
type PlanFetcher interface {
	FetchPlan(ctx context.Context, chatSessionID string) (*models.PlanDocument, error)
}

// Handlers exposes the planning view over HTTP. Each open session gets its
// own map surface; the resolver, estimator and drawer are shared.
type Handlers struct {
	fetcher   PlanFetcher
	scheduler *BatchScheduler
	estimator TransportEstimator
	drawer    RouteDrawer
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHandlers(fetcher PlanFetcher, scheduler *BatchScheduler, estimator TransportEstimator, drawer RouteDrawer, logger *zap.Logger) *Handlers {
	return &Handlers{
		fetcher:   fetcher,
		scheduler: scheduler,
		estimator: estimator,
		drawer:    drawer,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

type openSessionRequest struct {
	ChatSessionID string `json:"chat_session_id" binding:"required"`
}

type selectDayRequest struct {
	DayIndex *int `json:"day_index" binding:"required"`
}

type selectLegRequest struct {
	LegIndex *int `json:"leg_index" binding:"required"`
}

// HandleOpenSession fetches the itinerary for a chat session and opens a
// planning view on it, enriched and rendered for day one.
func (h *Handlers) HandleOpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_session_id is required"})
		return
	}

	doc, err := h.fetcher.FetchPlan(c.Request.Context(), req.ChatSessionID)
	if err != nil {
		h.logger.Error("Failed to fetch plan",
			zap.String("chat_session_id", req.ChatSessionID),
			zap.Error(err))
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no plan for that chat session"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "plan source unavailable"})
		return
	}
	if len(doc.Plan.Days) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "plan has no days"})
		return
	}

	id := uuid.New().String()
	session := NewSession(id, doc, h.scheduler, h.estimator, NewMapSurface(h.drawer, h.logger), h.logger)

	h.mu.Lock()
	h.sessions[id] = session
	open := len(h.sessions)
	h.mu.Unlock()
	metrics.Get().OpenSessionsGauge.Record(c.Request.Context(), int64(open))

	if _, err := session.SelectDay(c.Request.Context(), 0); err != nil {
		h.logger.Error("Initial day selection failed", zap.String("session_id", id), zap.Error(err))
	}

	h.logger.Info("Planning session opened",
		zap.String("session_id", id),
		zap.String("destination", doc.Destination),
		zap.Int("days", len(doc.Plan.Days)))

	c.JSON(http.StatusCreated, session.State())
}

// HandleSessionState returns the current selection and map snapshot.
func (h *Handlers) HandleSessionState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// HandleSelectDay switches the active day.
func (h *Handlers) HandleSelectDay(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req selectDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day_index is required"})
		return
	}

	if _, err := session.SelectDay(c.Request.Context(), *req.DayIndex); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// HandleSelectLeg focuses a single leg of the active day.
func (h *Handlers) HandleSelectLeg(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req selectLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "leg_index is required"})
		return
	}

	if _, err := session.SelectLeg(c.Request.Context(), *req.LegIndex); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// HandleOverview returns the view to the whole-day route.
func (h *Handlers) HandleOverview(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := session.ReturnToOverview(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// HandleToggleSidebar flips the sidebar visibility.
func (h *Handlers) HandleToggleSidebar(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": session.ToggleSidebar()})
}

// HandleCloseSession tears the session down and forgets it.
func (h *Handlers) HandleCloseSession(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	session, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	open := len(h.sessions)
	h.mu.Unlock()
	metrics.Get().OpenSessionsGauge.Record(c.Request.Context(), int64(open))

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	session.Close()
	c.Status(http.StatusNoContent)
}

// CloseAll tears down every open session; used at shutdown.
func (h *Handlers) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, session := range h.sessions {
		session.Close()
		delete(h.sessions, id)
	}
	metrics.Get().OpenSessionsGauge.Record(context.Background(), 0)
}

func (h *Handlers) session(c *gin.Context) (*Session, bool) {
	id := c.Param("id")

	h.mu.RLock()
	session, ok := h.sessions[id]
	h.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrDayOutOfRange), errors.Is(err, models.ErrLegOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Planning operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
