package planning

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/observability/metrics"
)

// CacheMetrics tracks day-cache performance.
type CacheMetrics struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// DayCache memoizes enriched day plans for one planning session, keyed by
// day index. Entries are never invalidated within a session: switching away
// and back to a day reuses the stored result. Each Put bumps a version
// counter, and the fingerprint derived from it lets the render trigger tell
// "awaiting computation" apart from "ready" without comparing contents.
type DayCache struct {
	mu      sync.RWMutex
	days    map[int]*models.DayPlan
	version map[int]uint64
	counter uint64
	metrics CacheMetrics
	logger  *zap.Logger
}

func NewDayCache(logger *zap.Logger) *DayCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayCache{
		days:    make(map[int]*models.DayPlan),
		version: make(map[int]uint64),
		logger:  logger,
	}
}

// Get returns the cached plan for a day, or nil. Repeat calls without an
// intervening Put return the same value.
func (c *DayCache) Get(dayIndex int) *models.DayPlan {
	c.mu.Lock()
	defer c.mu.Unlock()

	plan, ok := c.days[dayIndex]
	if !ok {
		c.metrics.Misses++
		metrics.Get().DayCacheMissesTotal.Add(context.Background(), 1)
		c.logger.Debug("Day cache miss", zap.Int("day", dayIndex))
		return nil
	}
	c.metrics.Hits++
	metrics.Get().DayCacheHitsTotal.Add(context.Background(), 1)
	c.logger.Debug("Day cache hit", zap.Int("day", dayIndex))
	return plan
}

// Put stores a computed day plan and advances the data version.
func (c *DayCache) Put(dayIndex int, plan *models.DayPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	c.days[dayIndex] = plan
	c.version[dayIndex] = c.counter
	c.metrics.Sets++

	c.logger.Debug("Day cache set",
		zap.Int("day", dayIndex),
		zap.Uint64("version", c.counter))
}

// Fingerprint is a cheap derived key for the render trigger: it changes on
// every Put for the day and is "no-data" while the day is uncomputed.
func (c *DayCache) Fingerprint(dayIndex int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.version[dayIndex]
	if !ok {
		return "no-data"
	}
	return strconv.Itoa(dayIndex) + "-v" + strconv.FormatUint(v, 10)
}

// Metrics returns a snapshot of cache counters.
func (c *DayCache) Metrics() CacheMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// Size returns the number of cached days.
func (c *DayCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.days)
}
