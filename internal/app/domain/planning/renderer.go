package planning

import (
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/adapters/amap"
	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/observability/metrics"
)

const (
	renderThrottle      = 1000 * time.Millisecond
	fullDayRetryDelay   = 2000 * time.Millisecond
	singleLegRetryDelay = 1500 * time.Millisecond
	maxRenderRetries    = 1
	maxWaypoints        = 16
)

// renderState is the renderer's observable state.
type renderState int

const (
	renderIdle renderState = iota
	renderRendering
	renderRateLimited
)

// RouteRenderer draws a day plan (or one selected leg of it) on the map
// surface. Requests are throttled client-side and rate-limit errors from the
// provider earn one delayed retry; every other failure is logged and the
// previous drawing is left in place. Render never reports errors upward.
type RouteRenderer struct {
	surface *MapSurface
	logger  *zap.Logger

	mu          sync.Mutex
	state       renderState
	lastInitial time.Time

	// Overridable for tests.
	throttle     time.Duration
	fullDayDelay time.Duration
	legDelay     time.Duration
}

func NewRouteRenderer(surface *MapSurface, logger *zap.Logger) *RouteRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteRenderer{
		surface:      surface,
		logger:       logger,
		throttle:     renderThrottle,
		fullDayDelay: fullDayRetryDelay,
		legDelay:     singleLegRetryDelay,
	}
}

// Render draws the full day when selectedLeg is nil, otherwise the single
// leg selectedLeg → selectedLeg+1. An initial request arriving within the
// throttle window of the previous initial request is dropped silently;
// rate-limit retries bypass the throttle.
func (r *RouteRenderer) Render(ctx context.Context, dayPlan *models.DayPlan, selectedLeg *int) {
	if dayPlan == nil {
		return
	}

	r.mu.Lock()
	now := time.Now()
	if now.Sub(r.lastInitial) < r.throttle {
		r.mu.Unlock()
		r.logger.Debug("Render request throttled")
		return
	}
	r.lastInitial = now
	if r.state != renderIdle {
		r.mu.Unlock()
		r.logger.Debug("Render already in progress, dropping request")
		return
	}
	r.state = renderRendering
	r.mu.Unlock()

	defer r.setState(renderIdle)

	if selectedLeg != nil {
		r.renderLeg(ctx, dayPlan, *selectedLeg)
		return
	}
	r.renderFullDay(ctx, dayPlan)
}

func (r *RouteRenderer) setState(s renderState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// State exposes the renderer state for the planning API.
func (r *RouteRenderer) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case renderRendering:
		return "rendering"
	case renderRateLimited:
		return "rate_limited"
	default:
		return "idle"
	}
}

func (r *RouteRenderer) renderFullDay(ctx context.Context, dayPlan *models.DayPlan) {
	points := dayPlan.ValidPOIs
	if len(points) < 2 {
		return
	}

	start := points[0].Coordinate
	end := points[len(points)-1].Coordinate
	if !finiteCoord(start) || !finiteCoord(end) {
		r.logger.Error("Route start or end coordinate invalid, aborting render",
			zap.Any("start", start),
			zap.Any("end", end))
		return
	}

	waypoints := make([]models.GeoCoordinate, 0, len(points))
	for i, p := range points[1 : len(points)-1] {
		if !finiteCoord(p.Coordinate) {
			r.logger.Warn("Skipping waypoint with invalid coordinate",
				zap.Int("index", i+1),
				zap.String("poi", p.POI))
			continue
		}
		waypoints = append(waypoints, *p.Coordinate)
	}
	waypoints = decimate(waypoints, maxWaypoints)

	r.draw(ctx, *start, *end, waypoints, "full_day", r.fullDayDelay)
}

func (r *RouteRenderer) renderLeg(ctx context.Context, dayPlan *models.DayPlan, legIndex int) {
	if legIndex < 0 || legIndex+1 >= len(dayPlan.Schedule) {
		return
	}
	from := dayPlan.Schedule[legIndex].Coordinate
	to := dayPlan.Schedule[legIndex+1].Coordinate
	if !finiteCoord(from) || !finiteCoord(to) {
		r.logger.Error("Leg endpoints invalid, aborting render",
			zap.Int("leg", legIndex),
			zap.Any("from", from),
			zap.Any("to", to))
		return
	}

	r.draw(ctx, *from, *to, nil, "single_leg", r.legDelay)
}

// draw clears the surface, issues the routing request and fits the view.
// One retry on the provider's rate-limit signal, after a fixed delay.
func (r *RouteRenderer) draw(ctx context.Context, origin, destination models.GeoCoordinate, waypoints []models.GeoCoordinate, mode string, retryDelay time.Duration) {
	modeAttr := metric.WithAttributes(attribute.String("mode", mode))
	retriesRemaining := maxRenderRetries
	for {
		metrics.Get().RouteDrawsTotal.Add(ctx, 1, modeAttr)
		r.surface.Clear()
		_, err := r.surface.Draw(ctx, origin, destination, waypoints, mode)
		if err == nil {
			r.surface.FitView()
			r.logger.Debug("Route rendered",
				zap.String("mode", mode),
				zap.Int("waypoints", len(waypoints)))
			return
		}

		if amap.IsRateLimited(err) && retriesRemaining > 0 {
			retriesRemaining--
			metrics.Get().RouteDrawRetriesTotal.Add(ctx, 1, modeAttr)
			r.setState(renderRateLimited)
			r.logger.Warn("Route draw rate limited, retrying",
				zap.String("mode", mode),
				zap.Duration("delay", retryDelay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			r.setState(renderRendering)
			continue
		}

		r.logger.Error("Route draw failed",
			zap.String("mode", mode),
			zap.Error(err))
		return
	}
}

func finiteCoord(c *models.GeoCoordinate) bool {
	if c == nil {
		return false
	}
	return !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0)
}

// decimate samples points evenly so that at most max survive.
func decimate(points []models.GeoCoordinate, max int) []models.GeoCoordinate {
	if len(points) <= max {
		return points
	}
	step := (len(points) + max - 1) / max
	out := make([]models.GeoCoordinate, 0, max)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	return out
}
