package amap

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

type geocodeResponse struct {
	envelope
	Geocodes []struct {
		Location string `json:"location"`
	} `json:"geocodes"`
}

// Geocode resolves a free-text place name scoped to a city. The second
// return value is false when the provider answered cleanly but found
// nothing; transport failures and throttling come back as errors.
func (c *Client) Geocode(ctx context.Context, address, city string) (models.GeoCoordinate, bool, error) {
	q := url.Values{}
	q.Set("address", address)
	if city != "" {
		q.Set("city", city)
	}

	var resp geocodeResponse
	if err := c.get(ctx, "/v3/geocode/geo", q, &resp); err != nil {
		return models.GeoCoordinate{}, false, err
	}
	if len(resp.Geocodes) == 0 {
		return models.GeoCoordinate{}, false, nil
	}

	coord, err := parseLngLat(resp.Geocodes[0].Location)
	if err != nil {
		c.logger.Warn("Discarding malformed geocode location",
			zap.String("address", address),
			zap.String("location", resp.Geocodes[0].Location))
		return models.GeoCoordinate{}, false, nil
	}
	return coord, true, nil
}
