package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/observability/metrics"
)

// TransportEstimator produces the transport comparison for one leg.
type TransportEstimator interface {
	Estimate(ctx context.Context, start, end *models.GeoCoordinate, city string) models.TransportPlan
}

// Session drives one planning view over a fetched itinerary: it owns the
// enrichment cache, the map surface and the current selection, and decides
// when a re-render is actually needed.
type Session struct {
	ID   string
	plan *models.PlanDocument
	city string

	scheduler *BatchScheduler
	estimator TransportEstimator
	cache     *DayCache
	renderer  *RouteRenderer
	surface   *MapSurface
	logger    *zap.Logger

	enrichGroup singleflight.Group

	// mu serializes the selection operations: gin serves day, leg and
	// state requests for the same session concurrently.
	mu            sync.Mutex
	selection     models.ViewSelectionState
	lastRenderKey string
}

// SessionState is the snapshot handed to the API layer.
type SessionState struct {
	ID            string                    `json:"id"`
	Destination   string                    `json:"destination"`
	DayCount      int                       `json:"day_count"`
	Selection     models.ViewSelectionState `json:"selection"`
	RendererState string                    `json:"renderer_state"`
	Current       *models.DayPlan           `json:"current_day,omitempty"`
	Drawing       *models.RouteDrawing      `json:"drawing,omitempty"`
	Bounds        *Bounds                   `json:"bounds,omitempty"`
}

// NewSession wires a session around an already-fetched plan document.
func NewSession(id string, plan *models.PlanDocument, scheduler *BatchScheduler, estimator TransportEstimator, surface *MapSurface, logger *zap.Logger) *Session {
	return &Session{
		ID:        id,
		plan:      plan,
		city:      plan.Destination,
		scheduler: scheduler,
		estimator: estimator,
		cache:     NewDayCache(logger),
		renderer:  NewRouteRenderer(surface, logger),
		surface:   surface,
		logger:    logger.With(zap.String("session_id", id)),
		selection: models.ViewSelectionState{ActiveDayIndex: 0, SidebarVisible: true},
	}
}

func (s *Session) dayCount() int {
	return len(s.plan.Plan.Days)
}

// SelectDay switches the active day, clearing any leg selection. The day is
// enriched on first visit and served from the cache afterwards.
func (s *Session) SelectDay(ctx context.Context, dayIndex int) (*models.DayPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface.Destroyed() {
		return nil, models.ErrSessionClosed
	}
	if dayIndex < 0 || dayIndex >= s.dayCount() {
		return nil, models.ErrDayOutOfRange
	}

	plan, err := s.dayPlan(ctx, dayIndex)
	if err != nil {
		return nil, err
	}

	s.selection.ActiveDayIndex = dayIndex
	s.selection.SelectedLegIndex = nil

	s.maybeRender(ctx, plan, nil)
	return plan, nil
}

// SelectLeg focuses one leg of the active day. Selecting a leg always makes
// the sidebar visible.
func (s *Session) SelectLeg(ctx context.Context, legIndex int) (*models.DayPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface.Destroyed() {
		return nil, models.ErrSessionClosed
	}

	plan, err := s.dayPlan(ctx, s.selection.ActiveDayIndex)
	if err != nil {
		return nil, err
	}
	if legIndex < 0 || legIndex+1 >= len(plan.Schedule) {
		return nil, models.ErrLegOutOfRange
	}

	leg := legIndex
	s.selection.SelectedLegIndex = &leg
	s.selection.SidebarVisible = true

	s.maybeRender(ctx, plan, &leg)
	return plan, nil
}

// ReturnToOverview drops the leg focus and redraws the whole day.
func (s *Session) ReturnToOverview(ctx context.Context) (*models.DayPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface.Destroyed() {
		return nil, models.ErrSessionClosed
	}

	plan, err := s.dayPlan(ctx, s.selection.ActiveDayIndex)
	if err != nil {
		return nil, err
	}

	s.selection.SelectedLegIndex = nil
	s.maybeRender(ctx, plan, nil)
	return plan, nil
}

// ToggleSidebar flips the sidebar without touching the route drawing.
func (s *Session) ToggleSidebar() models.ViewSelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SidebarVisible = !s.selection.SidebarVisible
	return s.selection
}

// State reports the current selection, renderer state and map snapshot.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	drawing, bounds := s.surface.Snapshot()
	return SessionState{
		ID:            s.ID,
		Destination:   s.plan.Destination,
		DayCount:      s.dayCount(),
		Selection:     s.selection,
		RendererState: s.renderer.State(),
		Current:       s.cache.Get(s.selection.ActiveDayIndex),
		Drawing:       drawing,
		Bounds:        bounds,
	}
}

// CacheMetrics exposes the day-cache counters for the session.
func (s *Session) CacheMetrics() CacheMetrics {
	return s.cache.Metrics()
}

// Close tears the session down. Safe to call more than once; any draw still
// in flight is discarded by the surface.
func (s *Session) Close() {
	s.surface.Destroy()
	s.logger.Info("Planning session closed")
}

// dayPlan returns the enriched plan for a day, enriching it at most once.
// Concurrent requests for the same day share a single enrichment.
func (s *Session) dayPlan(ctx context.Context, dayIndex int) (*models.DayPlan, error) {
	if cached := s.cache.Get(dayIndex); cached != nil {
		return cached, nil
	}

	key := fmt.Sprintf("day-%d", dayIndex)
	v, err, _ := s.enrichGroup.Do(key, func() (interface{}, error) {
		if cached := s.cache.Get(dayIndex); cached != nil {
			return cached, nil
		}
		plan := s.enrichDay(ctx, dayIndex)
		s.cache.Put(dayIndex, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DayPlan), nil
}

// enrichDay resolves every stop of the day and attaches a transport plan to
// each stop but the last resolvable one. Unresolvable stops are dropped from
// the rendered schedule.
func (s *Session) enrichDay(ctx context.Context, dayIndex int) *models.DayPlan {
	start := time.Now()
	raw := s.plan.Plan.Days[dayIndex]
	resolved := s.scheduler.ResolveAll(ctx, raw.Schedule, s.city)

	valid := make([]models.EnrichedScheduleItem, 0, len(resolved))
	for _, item := range resolved {
		if item.Coordinate != nil {
			valid = append(valid, item)
		}
	}

	for i := 0; i+1 < len(valid); i++ {
		plan := s.estimator.Estimate(ctx, valid[i].Coordinate, valid[i+1].Coordinate, s.city)
		valid[i].TransportToNext = &plan
	}

	metrics.Get().EnrichmentDuration.Record(ctx, time.Since(start).Seconds())
	s.logger.Info("Day enriched",
		zap.Int("day", raw.Day),
		zap.Int("stops", len(raw.Schedule)),
		zap.Int("resolved", len(valid)))

	return &models.DayPlan{Day: raw.Day, Schedule: valid, ValidPOIs: valid}
}

// maybeRender redraws only when the view actually changed: same day, same
// leg and same cache fingerprint means the overlay on screen is still right.
func (s *Session) maybeRender(ctx context.Context, plan *models.DayPlan, leg *int) {
	legKey := "overview"
	if leg != nil {
		legKey = fmt.Sprintf("leg-%d", *leg)
	}
	key := fmt.Sprintf("%d/%s/%s", s.selection.ActiveDayIndex, legKey, s.cache.Fingerprint(s.selection.ActiveDayIndex))
	if key == s.lastRenderKey {
		s.logger.Debug("View unchanged, skipping render", zap.String("key", key))
		return
	}
	s.lastRenderKey = key
	s.renderer.Render(ctx, plan, leg)
}
