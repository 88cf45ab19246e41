package planning

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

// RouteDrawer is the external route-drawing capability of the map provider.
type RouteDrawer interface {
	DrawDrivingRoute(ctx context.Context, origin, destination models.GeoCoordinate, waypoints []models.GeoCoordinate) (*models.RouteDrawing, error)
}

// Bounds is the viewport rectangle the surface was last fitted to.
type Bounds struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// MapSurface owns the drawing state of one planning view's map. It is the
// Go-side stand-in for the provider's map instance: the current overlay, the
// fitted viewport and the attached controls, with an ordered teardown so a
// late async completion never touches a destroyed surface.
type MapSurface struct {
	mu        sync.Mutex
	drawer    RouteDrawer
	current   *models.RouteDrawing
	bounds    *Bounds
	controls  []string
	destroyed bool
	logger    *zap.Logger
}

func NewMapSurface(drawer RouteDrawer, logger *zap.Logger) *MapSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapSurface{
		drawer:   drawer,
		controls: []string{"scale", "navigation"},
		logger:   logger,
	}
}

// Draw plans a route and installs it as the current overlay, stamped with the
// given mode. The drawing is shared with Snapshot readers once installed, so
// the mode is set before it becomes visible.
func (s *MapSurface) Draw(ctx context.Context, origin, destination models.GeoCoordinate, waypoints []models.GeoCoordinate, mode string) (*models.RouteDrawing, error) {
	s.mu.Lock()
	drawer := s.drawer
	destroyed := s.destroyed
	s.mu.Unlock()

	if destroyed || drawer == nil {
		return nil, models.ErrSessionClosed
	}

	drawing, err := drawer.DrawDrivingRoute(ctx, origin, destination, waypoints)
	if err != nil {
		return nil, err
	}
	drawing.Mode = mode

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		// Completed after teardown began; drop the result silently.
		return nil, models.ErrSessionClosed
	}
	s.current = drawing
	return drawing, nil
}

// Clear removes the current overlay.
func (s *MapSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.bounds = nil
}

// FitView fits the viewport to the current overlay's extent.
func (s *MapSurface) FitView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}

	pts := s.current.Polyline
	if len(pts) == 0 {
		pts = append([]models.GeoCoordinate{s.current.Origin}, s.current.Destination)
	}
	b := Bounds{
		MinLng: math.MaxFloat64, MinLat: math.MaxFloat64,
		MaxLng: -math.MaxFloat64, MaxLat: -math.MaxFloat64,
	}
	for _, p := range pts {
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	s.bounds = &b
}

// Snapshot returns the current overlay and viewport for the API layer.
func (s *MapSurface) Snapshot() (*models.RouteDrawing, *Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.bounds
}

// Destroy tears the surface down in dependency order: overlays first, then
// the routing capability, then the controls, then the surface itself.
// Idempotent; everything after the first call is a no-op.
func (s *MapSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.current = nil
	s.bounds = nil
	s.drawer = nil
	s.controls = nil
	s.destroyed = true
	s.logger.Debug("Map surface destroyed")
}

// Destroyed reports whether teardown has completed.
func (s *MapSurface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
