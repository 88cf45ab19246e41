// Package geo resolves free-text place names to map coordinates.
package geo

import (
	"context"
	"regexp"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/observability/metrics"
)

const (
	resolveTimeout     = 3 * time.Second
	noResultRetryDelay = 500 * time.Millisecond
	maxAttempts        = 2
)

// Parenthetical annotations, ASCII and full-width, e.g. "Old City Wall (South Gate)".
var parentheticalRe = regexp.MustCompile(`（[^）]*）|\([^)]*\)`)

// Geocoder is the external geocoding capability.
type Geocoder interface {
	// Geocode returns (coordinate, found, error). found=false with a nil
	// error is an explicit "no result" answer.
	Geocode(ctx context.Context, address, city string) (models.GeoCoordinate, bool, error)
}

// Resolver resolves place names with cleansing, a fixed timeout, and one
// retry. Lookups that fail after retries yield (zero, false) — never an
// error; unresolvable points are simply dropped downstream.
type Resolver struct {
	geocoder Geocoder
	cache    *gocache.Cache
	logger   *zap.Logger

	// Overridable for tests; defaults match the pipeline's rate budget.
	timeout    time.Duration
	retryDelay time.Duration
}

// NewResolver creates a Resolver with a short-lived place-name memo so that
// revisiting a day does not re-issue identical lookups.
func NewResolver(geocoder Geocoder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		geocoder:   geocoder,
		cache:      gocache.New(15*time.Minute, 30*time.Minute),
		logger:     logger,
		timeout:    resolveTimeout,
		retryDelay: noResultRetryDelay,
	}
}

// cleanse strips parenthetical annotations unless stripping leaves a string
// of one rune or fewer, in which case the original name wins.
func cleanse(name string) string {
	cleaned := parentheticalRe.ReplaceAllString(name, "")
	if len([]rune(cleaned)) <= 1 {
		return name
	}
	return cleaned
}

type geocodeOutcome struct {
	coord models.GeoCoordinate
	found bool
	err   error
}

// Resolve looks up placeName scoped to city. On timeout the in-flight
// request is abandoned in place and one fresh attempt is made; an explicit
// "no result" answer earns one delayed retry. The first outcome to arrive
// for an attempt wins; late completions are discarded.
func (r *Resolver) Resolve(ctx context.Context, placeName, city string) (models.GeoCoordinate, bool) {
	if placeName == "" {
		return models.GeoCoordinate{}, false
	}

	query := cleanse(placeName)
	cacheKey := city + "|" + query
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(models.GeoCoordinate), true
	}

	m := metrics.Get()
	m.GeocodeRequestsTotal.Add(ctx, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			m.GeocodeRetriesTotal.Add(ctx, 1)
		}
		outcomeCh := make(chan geocodeOutcome, 1) // buffered: a late completion must not block
		go func() {
			coord, found, err := r.geocoder.Geocode(ctx, query, city)
			outcomeCh <- geocodeOutcome{coord: coord, found: found, err: err}
		}()

		timer := time.NewTimer(r.timeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return models.GeoCoordinate{}, false

		case <-timer.C:
			// The original request stays in flight; its eventual result
			// drains into the buffered channel and is ignored.
			r.logger.Warn("Geocode timed out",
				zap.String("place", placeName),
				zap.Int("attempt", attempt))
			continue

		case out := <-outcomeCh:
			timer.Stop()
			if out.err == nil && out.found {
				r.cache.SetDefault(cacheKey, out.coord)
				return out.coord, true
			}

			if out.err != nil {
				r.logger.Warn("Geocode failed",
					zap.String("place", placeName),
					zap.Int("attempt", attempt),
					zap.Error(out.err))
			} else {
				r.logger.Debug("Geocode returned no result",
					zap.String("place", placeName),
					zap.Int("attempt", attempt))
			}

			if attempt == maxAttempts {
				break
			}
			// A clean miss usually means a clean miss again, but one spaced
			// retry catches transient provider hiccups.
			select {
			case <-ctx.Done():
				return models.GeoCoordinate{}, false
			case <-time.After(r.retryDelay):
			}
		}
	}

	m.GeocodeFailuresTotal.Add(ctx, 1)
	r.logger.Warn("Place could not be resolved", zap.String("place", placeName), zap.String("city", city))
	return models.GeoCoordinate{}, false
}
