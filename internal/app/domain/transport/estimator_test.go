package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/adapters/amap"
	"github.com/voyplan/voyplan/internal/app/models"
)

type fakeQuerier struct {
	driving    amap.RouteEstimate
	drivingErr error
	transit    amap.RouteEstimate
	transitErr error
	walking    amap.RouteEstimate
	walkingErr error

	walkCalls atomic.Int32
}

func (f *fakeQuerier) Driving(ctx context.Context, o, d models.GeoCoordinate) (amap.RouteEstimate, error) {
	return f.driving, f.drivingErr
}

func (f *fakeQuerier) Transit(ctx context.Context, o, d models.GeoCoordinate, city string) (amap.RouteEstimate, error) {
	return f.transit, f.transitErr
}

func (f *fakeQuerier) Walking(ctx context.Context, o, d models.GeoCoordinate) (amap.RouteEstimate, error) {
	f.walkCalls.Add(1)
	return f.walking, f.walkingErr
}

func coordPtr(lng, lat float64) *models.GeoCoordinate {
	return &models.GeoCoordinate{Lng: lng, Lat: lat}
}

func countRecommended(plan models.TransportPlan) int {
	n := 0
	for _, o := range plan.Options {
		if o.Recommend {
			n++
		}
	}
	return n
}

func TestEstimateMissingCoordinate(t *testing.T) {
	e := NewEstimator(&fakeQuerier{}, zap.NewNop())
	plan := e.Estimate(context.Background(), nil, coordPtr(1, 1), "Nanjing")
	assert.Empty(t, plan.Summary)
	assert.Empty(t, plan.Options)
}

func TestEstimateShortWalkWins(t *testing.T) {
	// walk 15 min, transit 40 min, taxi 30 min -> walk recommended.
	q := &fakeQuerier{
		driving: amap.RouteEstimate{DurationSeconds: 30 * 60, DistanceMeters: 8000},
		transit: amap.RouteEstimate{DurationSeconds: 40 * 60, Cost: 3},
		walking: amap.RouteEstimate{DurationSeconds: 15 * 60, DistanceMeters: 1200},
	}
	e := NewEstimator(q, zap.NewNop())

	plan := e.Estimate(context.Background(), coordPtr(118.79, 32.06), coordPtr(118.80, 32.07), "Nanjing")
	require.Len(t, plan.Options, 3)
	assert.Equal(t, models.TransportWalk, plan.Options[0].Type)
	assert.True(t, plan.Options[0].Recommend)
	assert.Equal(t, 1, countRecommended(plan))
	assert.Equal(t, "Walk", plan.Summary)
	// Non-recommended tail ordered by ascending time: taxi (30) before transit (40).
	assert.Equal(t, models.TransportTaxi, plan.Options[1].Type)
	assert.Equal(t, models.TransportTransit, plan.Options[2].Type)
}

func TestEstimateTransitBeatsTaxiWhenCloseEnough(t *testing.T) {
	q := &fakeQuerier{
		driving: amap.RouteEstimate{DurationSeconds: 30 * 60, DistanceMeters: 9000},
		transit: amap.RouteEstimate{DurationSeconds: 40 * 60, Cost: 3}, // 40 < 30*1.5
		walking: amap.RouteEstimate{DurationSeconds: 90 * 60, DistanceMeters: 2900},
	}
	e := NewEstimator(q, zap.NewNop())

	plan := e.Estimate(context.Background(), coordPtr(118.79, 32.06), coordPtr(118.80, 32.07), "Nanjing")
	require.NotEmpty(t, plan.Options)
	assert.Equal(t, models.TransportTransit, plan.Options[0].Type)
	assert.Equal(t, 1, countRecommended(plan))
}

func TestEstimateSkipsWalkBeyondThreshold(t *testing.T) {
	// Roughly 25 km apart: walking must not be queried at all.
	q := &fakeQuerier{
		driving: amap.RouteEstimate{DurationSeconds: 1800, DistanceMeters: 26000},
		transit: amap.RouteEstimate{DurationSeconds: 3600, Cost: 5},
	}
	e := NewEstimator(q, zap.NewNop())

	plan := e.Estimate(context.Background(), coordPtr(118.70, 32.00), coordPtr(118.95, 32.10), "Nanjing")
	assert.Equal(t, int32(0), q.walkCalls.Load())
	require.Len(t, plan.Options, 2)
	for _, opt := range plan.Options {
		assert.NotEqual(t, models.TransportWalk, opt.Type)
	}
}

func TestEstimateTaxiPricing(t *testing.T) {
	// 8 km drive: 11 + 5*2.5 = 23.5 -> rounds to 24.
	q := &fakeQuerier{
		driving:    amap.RouteEstimate{DurationSeconds: 1200, DistanceMeters: 8000},
		transitErr: errors.New("down"),
		walkingErr: errors.New("down"),
	}
	e := NewEstimator(q, zap.NewNop())

	plan := e.Estimate(context.Background(), coordPtr(118.79, 32.06), coordPtr(118.80, 32.07), "Nanjing")
	require.Len(t, plan.Options, 1)
	assert.Equal(t, models.TransportTaxi, plan.Options[0].Type)
	assert.Equal(t, "~¥24", plan.Options[0].Price)
	assert.True(t, plan.Options[0].Recommend)
}

func TestEstimateAllModesFailFallsBack(t *testing.T) {
	q := &fakeQuerier{
		drivingErr: errors.New("down"),
		transitErr: errors.New("down"),
		walkingErr: errors.New("down"),
	}
	e := NewEstimator(q, zap.NewNop())

	plan := e.Estimate(context.Background(), coordPtr(118.79, 32.06), coordPtr(118.80, 32.07), "Nanjing")
	require.Len(t, plan.Options, 1)
	assert.Equal(t, "Taxi suggested", plan.Summary)
	assert.True(t, plan.Options[0].Recommend)
	assert.Equal(t, "-", plan.Options[0].Time)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "15 min", formatDuration(15*60))
	assert.Equal(t, "1h 5m", formatDuration(65*60))
}
