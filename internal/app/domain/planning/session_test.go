package planning

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

type mapResolver struct {
	mu     sync.Mutex
	coords map[string]models.GeoCoordinate
	calls  int
}

func (m *mapResolver) Resolve(_ context.Context, placeName, _ string) (models.GeoCoordinate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	c, ok := m.coords[placeName]
	return c, ok
}

func (m *mapResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type stubEstimator struct {
	mu    sync.Mutex
	calls int
}

func (s *stubEstimator) Estimate(_ context.Context, _, _ *models.GeoCoordinate, _ string) models.TransportPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return models.TransportPlan{
		Summary: "10 min walk",
		Options: []models.TransportOption{{Type: models.TransportWalk, Label: "Walk", Time: "10 min", RawTime: 600, Price: "free", Recommend: true}},
	}
}

func planDoc(days ...[]string) *models.PlanDocument {
	doc := &models.PlanDocument{Destination: "Nanjing"}
	for i, names := range days {
		day := models.RawDay{Day: i + 1}
		for _, n := range names {
			day.Schedule = append(day.Schedule, models.ScheduleItem{POI: n, Time: "09:00", Duration: "1h"})
		}
		doc.Plan.Days = append(doc.Plan.Days, day)
	}
	return doc
}

func newTestSession(t *testing.T, doc *models.PlanDocument, resolver *mapResolver, drawer *fakeDrawer) *Session {
	t.Helper()
	logger := zap.NewNop()
	surface := NewMapSurface(drawer, logger)
	s := NewSession("sess-1", doc, NewBatchScheduler(resolver, logger), &stubEstimator{}, surface, logger)
	s.renderer.throttle = 0 // deduplication is the session's job here
	return s
}

func TestSelectDayEnrichesAndRenders(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
		"Bridge": {Lng: 118.85, Lat: 32.07},
	}}
	drawer := &fakeDrawer{}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake", "Bridge"}), resolver, drawer)

	plan, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, plan.Schedule, 3)

	// every stop but the last carries a transport plan
	assert.NotNil(t, plan.Schedule[0].TransportToNext)
	assert.NotNil(t, plan.Schedule[1].TransportToNext)
	assert.Nil(t, plan.Schedule[2].TransportToNext)

	assert.Equal(t, 1, drawer.callCount())
}

func TestSelectDayOutOfRange(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{}}
	s := newTestSession(t, planDoc([]string{"Temple"}), resolver, &fakeDrawer{})

	_, err := s.SelectDay(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrDayOutOfRange)
	_, err = s.SelectDay(context.Background(), -1)
	assert.ErrorIs(t, err, models.ErrDayOutOfRange)
}

func TestSelectDayServedFromCacheOnRevisit(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}, []string{"Temple"}), resolver, &fakeDrawer{})

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	callsAfterFirst := resolver.callCount()

	_, err = s.SelectDay(context.Background(), 1)
	require.NoError(t, err)
	_, err = s.SelectDay(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst+1, resolver.callCount(), "revisiting day 0 must not resolve again")
	assert.Equal(t, int64(1), s.CacheMetrics().Hits)
}

func TestUnresolvedStopsDroppedFromSchedule(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Nowhere", "Lake"}), resolver, &fakeDrawer{})

	plan, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, plan.Schedule, 2)
	assert.Equal(t, "Temple", plan.Schedule[0].POI)
	assert.Equal(t, "Lake", plan.Schedule[1].POI)
}

func TestSelectLegForcesSidebarAndRenders(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
		"Bridge": {Lng: 118.85, Lat: 32.07},
	}}
	drawer := &fakeDrawer{}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake", "Bridge"}), resolver, drawer)

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	s.ToggleSidebar() // hide it

	_, err = s.SelectLeg(context.Background(), 1)
	require.NoError(t, err)

	state := s.State()
	assert.True(t, state.Selection.SidebarVisible, "leg selection reopens the sidebar")
	require.NotNil(t, state.Selection.SelectedLegIndex)
	assert.Equal(t, 1, *state.Selection.SelectedLegIndex)

	require.Equal(t, 2, drawer.callCount())
	assert.Equal(t, models.GeoCoordinate{Lng: 118.82, Lat: 32.05}, drawer.calls[1].origin)
	assert.Equal(t, models.GeoCoordinate{Lng: 118.85, Lat: 32.07}, drawer.calls[1].destination)
}

func TestSelectLegOutOfRange(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}), resolver, &fakeDrawer{})

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)

	// two stops yield exactly one leg: index 0
	_, err = s.SelectLeg(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrLegOutOfRange)
	_, err = s.SelectLeg(context.Background(), -1)
	assert.ErrorIs(t, err, models.ErrLegOutOfRange)
}

func TestReturnToOverviewRedraws(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	drawer := &fakeDrawer{}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}), resolver, drawer)

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	_, err = s.SelectLeg(context.Background(), 0)
	require.NoError(t, err)
	_, err = s.ReturnToOverview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, drawer.callCount())
	assert.Nil(t, s.State().Selection.SelectedLegIndex)
}

func TestUnchangedViewSkipsRender(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	drawer := &fakeDrawer{}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}), resolver, drawer)

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)
	_, err = s.SelectDay(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, drawer.callCount(), "same day, same fingerprint: no redraw")
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}), resolver, &fakeDrawer{})

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)

	s.Close()
	s.Close() // idempotent

	_, err = s.SelectDay(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrSessionClosed)
	_, err = s.SelectLeg(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrSessionClosed)
	_, err = s.ReturnToOverview(context.Background())
	assert.ErrorIs(t, err, models.ErrSessionClosed)
}

func TestConcurrentSelectDayEnrichesOnce(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake"}), resolver, &fakeDrawer{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.dayPlan(context.Background(), 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, resolver.callCount(), "eight callers share one enrichment")
}

func TestConcurrentSelectionAndStateReads(t *testing.T) {
	resolver := &mapResolver{coords: map[string]models.GeoCoordinate{
		"Temple": {Lng: 118.79, Lat: 32.02},
		"Lake":   {Lng: 118.82, Lat: 32.05},
		"Bridge": {Lng: 118.85, Lat: 32.07},
	}}
	s := newTestSession(t, planDoc([]string{"Temple", "Lake", "Bridge"}), resolver, &fakeDrawer{})

	_, err := s.SelectDay(context.Background(), 0)
	require.NoError(t, err)

	// gin serves day, leg and state requests for one session concurrently;
	// run under -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		leg := i % 2
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, selErr := s.SelectLeg(context.Background(), leg)
			assert.NoError(t, selErr)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dayErr := s.SelectDay(context.Background(), 0)
			assert.NoError(t, dayErr)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := s.State()
			assert.Equal(t, "sess-1", state.ID)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleSidebar()
		}()
	}
	wg.Wait()

	state := s.State()
	assert.Equal(t, 0, state.Selection.ActiveDayIndex)
}
