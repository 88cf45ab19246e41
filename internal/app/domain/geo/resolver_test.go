package geo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

// scriptedGeocoder plays back one outcome per call, in order. delays, when
// set, is aligned with outcomes and stalls the corresponding call.
type scriptedGeocoder struct {
	calls    atomic.Int32
	queries  chan string
	outcomes []geocodeOutcome
	delays   []time.Duration
}

func newScriptedGeocoder(outcomes ...geocodeOutcome) *scriptedGeocoder {
	return &scriptedGeocoder{
		queries:  make(chan string, 16),
		outcomes: outcomes,
	}
}

func (s *scriptedGeocoder) Geocode(ctx context.Context, address, city string) (models.GeoCoordinate, bool, error) {
	n := int(s.calls.Add(1)) - 1
	s.queries <- address
	if n < len(s.delays) && s.delays[n] > 0 {
		select {
		case <-ctx.Done():
			return models.GeoCoordinate{}, false, ctx.Err()
		case <-time.After(s.delays[n]):
		}
	}
	if n >= len(s.outcomes) {
		return models.GeoCoordinate{}, false, nil
	}
	out := s.outcomes[n]
	return out.coord, out.found, out.err
}

func TestCleanse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii parenthetical", "Old City Wall (South Gate)", "Old City Wall "},
		{"fullwidth parenthetical", "Old City Wall（South Gate）", "Old City Wall"},
		{"stripping would leave too little", "（湖）A", "（湖）A"},
		{"no parenthetical", "Confucius Temple", "Confucius Temple"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanse(tc.in))
		})
	}
}

func TestResolveSuccess(t *testing.T) {
	want := models.GeoCoordinate{Lng: 118.79, Lat: 32.06}
	g := newScriptedGeocoder(geocodeOutcome{coord: want, found: true})
	r := NewResolver(g, zap.NewNop())

	got, ok := r.Resolve(context.Background(), "Confucius Temple (north entrance)", "Nanjing")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, "Confucius Temple ", <-g.queries)
}

func TestResolveRetriesOnceOnNoResult(t *testing.T) {
	want := models.GeoCoordinate{Lng: 1, Lat: 2}
	g := newScriptedGeocoder(
		geocodeOutcome{found: false},
		geocodeOutcome{coord: want, found: true},
	)
	r := NewResolver(g, zap.NewNop())
	r.retryDelay = 10 * time.Millisecond

	start := time.Now()
	got, ok := r.Resolve(context.Background(), "Somewhere", "Nanjing")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, int32(2), g.calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "no-result retry must be delayed")
}

func TestResolveGivesUpAfterTwoAttempts(t *testing.T) {
	g := newScriptedGeocoder(
		geocodeOutcome{err: errors.New("boom")},
		geocodeOutcome{err: errors.New("boom again")},
	)
	r := NewResolver(g, zap.NewNop())
	r.retryDelay = time.Millisecond

	_, ok := r.Resolve(context.Background(), "Nowhere", "Nanjing")
	assert.False(t, ok)
	assert.Equal(t, int32(2), g.calls.Load(), "at most one retry")
}

func TestResolveTimeoutRetries(t *testing.T) {
	want := models.GeoCoordinate{Lng: 3, Lat: 4}
	// First call hangs past the timeout; the retry answers quickly.
	g := newScriptedGeocoder(
		geocodeOutcome{coord: want, found: true},
		geocodeOutcome{coord: want, found: true},
	)
	g.delays = []time.Duration{50 * time.Millisecond, 0}
	r := NewResolver(g, zap.NewNop())
	r.timeout = 20 * time.Millisecond

	got, ok := r.Resolve(context.Background(), "Slow Place", "Nanjing")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestResolveCachesHits(t *testing.T) {
	want := models.GeoCoordinate{Lng: 5, Lat: 6}
	g := newScriptedGeocoder(geocodeOutcome{coord: want, found: true})
	r := NewResolver(g, zap.NewNop())

	for i := 0; i < 3; i++ {
		got, ok := r.Resolve(context.Background(), "Museum", "Nanjing")
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, int32(1), g.calls.Load(), "repeat lookups served from cache")
}
