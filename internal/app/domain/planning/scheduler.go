// Package planning drives day-itinerary enrichment and route rendering: it
// resolves a day's stops to coordinates, estimates the transport legs
// between them, caches the result per day, and draws either the whole day
// or one selected leg on the map surface.
package planning

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

const (
	defaultBatchSize  = 3
	defaultBatchPause = 300 * time.Millisecond
)

// PlaceResolver resolves one place name; see the geo package.
type PlaceResolver interface {
	Resolve(ctx context.Context, placeName, city string) (models.GeoCoordinate, bool)
}

// BatchScheduler runs coordinate resolution over a day's schedule in fixed
// batches. Within a batch every lookup runs concurrently; between batches a
// fixed pause is enforced no matter how fast the batch finished, which
// bounds the outbound geocoding rate independent of provider latency.
type BatchScheduler struct {
	resolver  PlaceResolver
	batchSize int
	pause     time.Duration
	logger    *zap.Logger
}

func NewBatchScheduler(resolver PlaceResolver, logger *zap.Logger) *BatchScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchScheduler{
		resolver:  resolver,
		batchSize: defaultBatchSize,
		pause:     defaultBatchPause,
		logger:    logger,
	}
}

// ResolveAll resolves every schedule item to a coordinate, preserving input
// order. Items that cannot be resolved stay in the output with a nil
// coordinate; filtering is the caller's job.
func (s *BatchScheduler) ResolveAll(ctx context.Context, items []models.ScheduleItem, city string) []models.EnrichedScheduleItem {
	out := make([]models.EnrichedScheduleItem, len(items))

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}

		s.logger.Debug("Resolving coordinate batch",
			zap.Int("batch", start/s.batchSize+1),
			zap.Int("size", end-start))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				item := items[idx]
				out[idx] = models.EnrichedScheduleItem{ScheduleItem: item}
				if coord, ok := s.resolver.Resolve(ctx, item.POI, city); ok {
					c := coord
					out[idx].Coordinate = &c
				}
			}(i)
		}
		wg.Wait()

		if end < len(items) {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(s.pause):
			}
		}
	}
	return out
}
