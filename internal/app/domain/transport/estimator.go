// Package transport computes walk/transit/taxi options between two stops and
// picks a recommended mode.
package transport

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/adapters/amap"
	"github.com/voyplan/voyplan/internal/app/models"
)

const (
	// Walking is not queried for legs longer than this straight-line distance.
	maxWalkDistanceMeters = 3000.0

	// Taxi fare model: flat fare covers the first 3 km, then per-km rate.
	taxiFlagFare   = 11.0
	taxiFlagKm     = 3.0
	taxiPerKmRate  = 2.5
	walkRecommends = 20 * 60 // walk wins below 20 minutes
)

// RouteQuerier is the external routing capability, one query per mode.
type RouteQuerier interface {
	Driving(ctx context.Context, origin, destination models.GeoCoordinate) (amap.RouteEstimate, error)
	Transit(ctx context.Context, origin, destination models.GeoCoordinate, city string) (amap.RouteEstimate, error)
	Walking(ctx context.Context, origin, destination models.GeoCoordinate) (amap.RouteEstimate, error)
}

// Estimator builds TransportPlans. Mode queries run in parallel with
// all-settled semantics: one mode failing never fails the leg.
type Estimator struct {
	routes RouteQuerier
	logger *zap.Logger
}

func NewEstimator(routes RouteQuerier, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{routes: routes, logger: logger}
}

type modeResult struct {
	mode models.TransportType
	est  amap.RouteEstimate
	err  error
}

// Estimate computes the transport plan for the leg start→end. A nil start or
// end yields an uncomputable plan (empty summary, no options). If every
// queried mode fails, a synthetic "suggest taxi" option is returned so the
// view always has something to show.
func (e *Estimator) Estimate(ctx context.Context, start, end *models.GeoCoordinate, city string) models.TransportPlan {
	if start == nil || end == nil {
		return models.TransportPlan{}
	}

	straight := haversineMeters(*start, *end)

	// Fan the mode queries out; collect whatever settles.
	resultCh := make(chan modeResult, 3)
	queries := 2

	go func() {
		est, err := e.routes.Driving(ctx, *start, *end)
		resultCh <- modeResult{mode: models.TransportTaxi, est: est, err: err}
	}()
	go func() {
		est, err := e.routes.Transit(ctx, *start, *end, city)
		resultCh <- modeResult{mode: models.TransportTransit, est: est, err: err}
	}()
	if straight < maxWalkDistanceMeters {
		queries++
		go func() {
			est, err := e.routes.Walking(ctx, *start, *end)
			resultCh <- modeResult{mode: models.TransportWalk, est: est, err: err}
		}()
	}

	options := make([]models.TransportOption, 0, 3)
	for i := 0; i < queries; i++ {
		res := <-resultCh
		if res.err != nil {
			e.logger.Debug("Transport mode query failed",
				zap.String("mode", string(res.mode)),
				zap.Error(res.err))
			continue
		}
		options = append(options, e.buildOption(res))
	}

	if len(options) == 0 {
		return models.TransportPlan{
			Summary: "Taxi suggested",
			Options: []models.TransportOption{{
				Type:      models.TransportTaxi,
				Label:     "Taxi suggested",
				Time:      "-",
				Price:     "metered",
				Desc:      "route computation failed",
				Recommend: true,
			}},
		}
	}

	best := recommend(options)
	for i := range options {
		options[i].Recommend = options[i].Type == best.Type
	}

	// Recommended first, the rest by ascending travel time.
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Recommend != options[j].Recommend {
			return options[i].Recommend
		}
		return options[i].RawTime < options[j].RawTime
	})

	return models.TransportPlan{Summary: best.Label, Options: options}
}

func (e *Estimator) buildOption(res modeResult) models.TransportOption {
	distKm := float64(res.est.DistanceMeters) / 1000

	switch res.mode {
	case models.TransportTaxi:
		price := taxiFlagFare
		if distKm > taxiFlagKm {
			price += (distKm - taxiFlagKm) * taxiPerKmRate
		}
		return models.TransportOption{
			Type:    models.TransportTaxi,
			Label:   "Taxi",
			Time:    formatDuration(res.est.DurationSeconds),
			RawTime: res.est.DurationSeconds,
			Price:   fmt.Sprintf("~¥%d", int(math.Round(price))),
			Desc:    fmt.Sprintf("fastest | %.1fkm", distKm),
		}

	case models.TransportTransit:
		cost := res.est.Cost
		if cost == 0 {
			cost = 2
		}
		desc := res.est.SegmentDesc
		if desc == "" {
			desc = "transfer required"
		}
		return models.TransportOption{
			Type:    models.TransportTransit,
			Label:   "Transit",
			Time:    formatDuration(res.est.DurationSeconds),
			RawTime: res.est.DurationSeconds,
			Price:   fmt.Sprintf("¥%.0f", cost),
			Desc:    desc,
		}

	default:
		return models.TransportOption{
			Type:    models.TransportWalk,
			Label:   "Walk",
			Time:    formatDuration(res.est.DurationSeconds),
			RawTime: res.est.DurationSeconds,
			Price:   "free",
			Desc:    fmt.Sprintf("%.1fkm", distKm),
		}
	}
}

// recommend applies the mode priority rule: short walks win, then transit
// when it is not much slower than a taxi, then taxi.
func recommend(options []models.TransportOption) models.TransportOption {
	var walk, transit, taxi *models.TransportOption
	for i := range options {
		switch options[i].Type {
		case models.TransportWalk:
			walk = &options[i]
		case models.TransportTransit:
			transit = &options[i]
		case models.TransportTaxi:
			taxi = &options[i]
		}
	}

	if walk != nil && walk.RawTime < walkRecommends {
		return *walk
	}
	if transit != nil && taxi != nil && float64(transit.RawTime) < float64(taxi.RawTime)*1.5 {
		return *transit
	}
	if taxi != nil {
		return *taxi
	}
	return options[0]
}

func formatDuration(seconds int) string {
	min := int(math.Round(float64(seconds) / 60))
	if min < 60 {
		return fmt.Sprintf("%d min", min)
	}
	return fmt.Sprintf("%dh %dm", min/60, min%60)
}

// haversineMeters is the straight-line distance between two coordinates,
// used only to prune pointless walking queries.
func haversineMeters(a, b models.GeoCoordinate) float64 {
	const earthRadius = 6371000.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(h))
}
