package amap

import (
	"context"
	"net/url"
	"strings"

	"github.com/voyplan/voyplan/internal/app/models"
)

type drivingResponse struct {
	envelope
	Route struct {
		TaxiCost string `json:"taxi_cost"`
		Paths    []struct {
			Distance string `json:"distance"`
			Duration string `json:"duration"`
			Steps    []struct {
				Polyline string `json:"polyline"`
			} `json:"steps"`
		} `json:"paths"`
	} `json:"route"`
}

// Driving returns the fastest driving route between two coordinates.
func (c *Client) Driving(ctx context.Context, origin, destination models.GeoCoordinate) (RouteEstimate, error) {
	resp, err := c.driving(ctx, origin, destination, nil)
	if err != nil {
		return RouteEstimate{}, err
	}
	path := resp.Route.Paths[0]
	return RouteEstimate{
		DurationSeconds: atoiLoose(path.Duration),
		DistanceMeters:  atoiLoose(path.Distance),
	}, nil
}

// DrawDrivingRoute plans a driving route through the given waypoints and
// returns it in drawable form, polyline included. This backs the map
// surface's route drawing capability.
func (c *Client) DrawDrivingRoute(ctx context.Context, origin, destination models.GeoCoordinate, waypoints []models.GeoCoordinate) (*models.RouteDrawing, error) {
	resp, err := c.driving(ctx, origin, destination, waypoints)
	if err != nil {
		return nil, err
	}

	path := resp.Route.Paths[0]
	drawing := &models.RouteDrawing{
		Origin:          origin,
		Destination:     destination,
		Waypoints:       waypoints,
		DistanceMeters:  atoiLoose(path.Distance),
		DurationSeconds: atoiLoose(path.Duration),
	}
	for _, step := range path.Steps {
		for _, pt := range strings.Split(step.Polyline, ";") {
			coord, err := parseLngLat(pt)
			if err != nil {
				continue
			}
			drawing.Polyline = append(drawing.Polyline, coord)
		}
	}
	return drawing, nil
}

func (c *Client) driving(ctx context.Context, origin, destination models.GeoCoordinate, waypoints []models.GeoCoordinate) (*drivingResponse, error) {
	q := url.Values{}
	q.Set("origin", formatLngLat(origin))
	q.Set("destination", formatLngLat(destination))
	q.Set("strategy", "2") // fastest route
	if len(waypoints) > 0 {
		pts := make([]string, 0, len(waypoints))
		for _, w := range waypoints {
			pts = append(pts, formatLngLat(w))
		}
		q.Set("waypoints", strings.Join(pts, ";"))
	}

	var resp drivingResponse
	if err := c.get(ctx, "/v3/direction/driving", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Route.Paths) == 0 {
		return nil, ErrNoResult
	}
	return &resp, nil
}

type transitResponse struct {
	envelope
	Route struct {
		Transits []struct {
			Duration string `json:"duration"`
			Cost     string `json:"cost"`
			Distance string `json:"distance"`
			Segments []struct {
				Bus struct {
					Buslines []struct {
						Name string `json:"name"`
					} `json:"buslines"`
				} `json:"bus"`
			} `json:"segments"`
		} `json:"transits"`
	} `json:"route"`
}

// Transit returns the fastest public-transit plan between two coordinates.
// SegmentDesc is a short "line -> line" summary of the ride.
func (c *Client) Transit(ctx context.Context, origin, destination models.GeoCoordinate, city string) (RouteEstimate, error) {
	q := url.Values{}
	q.Set("origin", formatLngLat(origin))
	q.Set("destination", formatLngLat(destination))
	q.Set("city", city)
	q.Set("strategy", "0")

	var resp transitResponse
	if err := c.get(ctx, "/v3/direction/transit/integrated", q, &resp); err != nil {
		return RouteEstimate{}, err
	}
	if len(resp.Route.Transits) == 0 {
		return RouteEstimate{}, ErrNoResult
	}

	plan := resp.Route.Transits[0]
	var lines []string
	for _, seg := range plan.Segments {
		for _, bl := range seg.Bus.Buslines {
			if bl.Name != "" {
				lines = append(lines, bl.Name)
				break
			}
		}
	}
	desc := strings.Join(lines, " -> ")
	// bus line names are Chinese; cut on runes, not bytes
	if r := []rune(desc); len(r) > 40 {
		desc = string(r[:40]) + "..."
	}

	est := RouteEstimate{
		DurationSeconds: atoiLoose(plan.Duration),
		DistanceMeters:  atoiLoose(plan.Distance),
		SegmentDesc:     desc,
	}
	if plan.Cost != "" {
		est.Cost = float64(atoiLoose(plan.Cost))
	}
	return est, nil
}

type walkingResponse struct {
	envelope
	Route struct {
		Paths []struct {
			Distance string `json:"distance"`
			Duration string `json:"duration"`
		} `json:"paths"`
	} `json:"route"`
}

// Walking returns the walking route between two coordinates.
func (c *Client) Walking(ctx context.Context, origin, destination models.GeoCoordinate) (RouteEstimate, error) {
	q := url.Values{}
	q.Set("origin", formatLngLat(origin))
	q.Set("destination", formatLngLat(destination))

	var resp walkingResponse
	if err := c.get(ctx, "/v3/direction/walking", q, &resp); err != nil {
		return RouteEstimate{}, err
	}
	if len(resp.Route.Paths) == 0 {
		return RouteEstimate{}, ErrNoResult
	}
	return RouteEstimate{
		DurationSeconds: atoiLoose(resp.Route.Paths[0].Duration),
		DistanceMeters:  atoiLoose(resp.Route.Paths[0].Distance),
	}, nil
}
