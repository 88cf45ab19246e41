package planning

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

// recordingResolver resolves everything except names listed in misses, and
// records the wall-clock start time of every call.
type recordingResolver struct {
	mu     sync.Mutex
	starts []time.Time
	misses map[string]bool
}

func (r *recordingResolver) Resolve(ctx context.Context, placeName, city string) (models.GeoCoordinate, bool) {
	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	r.mu.Unlock()
	if r.misses[placeName] {
		return models.GeoCoordinate{}, false
	}
	return models.GeoCoordinate{Lng: float64(len(placeName)), Lat: 1}, true
}

func scheduleOf(names ...string) []models.ScheduleItem {
	items := make([]models.ScheduleItem, len(names))
	for i, n := range names {
		items[i] = models.ScheduleItem{POI: n, Time: "09:00"}
	}
	return items
}

func TestResolveAllPreservesOrderAndMisses(t *testing.T) {
	r := &recordingResolver{misses: map[string]bool{"bb": true}}
	s := NewBatchScheduler(r, zap.NewNop())

	out := s.ResolveAll(context.Background(), scheduleOf("a", "bb", "ccc", "dddd"), "Nanjing")
	require.Len(t, out, 4)
	assert.Equal(t, "a", out[0].POI)
	assert.Equal(t, "bb", out[1].POI)
	assert.Nil(t, out[1].Coordinate, "unresolved item kept with nil coordinate")
	require.NotNil(t, out[2].Coordinate)
	assert.Equal(t, 3.0, out[2].Coordinate.Lng)
}

func TestResolveAllBatchPacing(t *testing.T) {
	r := &recordingResolver{}
	s := NewBatchScheduler(r, zap.NewNop())

	out := s.ResolveAll(context.Background(), scheduleOf("a", "b", "c", "d", "e", "f", "g"), "Nanjing")
	require.Len(t, out, 7)
	require.Len(t, r.starts, 7)

	// Batches of 3,3,1: items 3 and 6 open the second and third batch,
	// each at least the enforced pause after the previous batch started.
	gap1 := r.starts[3].Sub(r.starts[0])
	gap2 := r.starts[6].Sub(r.starts[3])
	assert.GreaterOrEqual(t, gap1, defaultBatchPause)
	assert.GreaterOrEqual(t, gap2, defaultBatchPause)
}

func TestResolveAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recordingResolver{}
	s := NewBatchScheduler(r, zap.NewNop())

	out := s.ResolveAll(ctx, scheduleOf("a", "b", "c", "d"), "Nanjing")
	// First batch runs, the pause observes cancellation and the rest is skipped.
	require.Len(t, out, 4)
	assert.Nil(t, out[3].Coordinate)
}
