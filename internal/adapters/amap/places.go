package amap

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/voyplan/voyplan/internal/app/models"
)

// Place is one POI from the provider's text search.
type Place struct {
	ID       string
	Name     string
	Type     string
	Address  string
	Province string
	City     string
	District string
	Location *models.GeoCoordinate
	Rating   string
	Cost     string
	PhotoURL string
}

// PlaceSearchResult is one page of a text search.
type PlaceSearchResult struct {
	Places []Place
	Total  int
}

// looseString tolerates the provider's habit of encoding an absent value as
// an empty array instead of a string.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = looseString(v)
	return nil
}

type placeTextResponse struct {
	envelope
	Count string `json:"count"`
	POIs  []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Address  string `json:"address"`
		Pname    string `json:"pname"`
		Cityname string `json:"cityname"`
		Adname   string `json:"adname"`
		Location string `json:"location"`
		BizExt   struct {
			Rating looseString `json:"rating"`
			Cost   looseString `json:"cost"`
		} `json:"biz_ext"`
		Photos []struct {
			URL string `json:"url"`
		} `json:"photos"`
	} `json:"pois"`
}

// SearchPlaces runs a paged keyword search for POIs. city narrows the search
// when non-empty but does not hard-limit it; page is 1-based.
func (c *Client) SearchPlaces(ctx context.Context, keywords, city string, page, pageSize int) (*PlaceSearchResult, error) {
	q := url.Values{}
	q.Set("keywords", keywords)
	q.Set("page", strconv.Itoa(page))
	q.Set("offset", strconv.Itoa(pageSize))
	q.Set("citylimit", "false")
	q.Set("extensions", "all")
	if city != "" {
		q.Set("city", city)
	}

	var resp placeTextResponse
	if err := c.get(ctx, "/v3/place/text", q, &resp); err != nil {
		return nil, err
	}

	result := &PlaceSearchResult{Total: atoiLoose(resp.Count)}
	for _, poi := range resp.POIs {
		p := Place{
			ID:       poi.ID,
			Name:     poi.Name,
			Type:     poi.Type,
			Address:  poi.Address,
			Province: poi.Pname,
			City:     poi.Cityname,
			District: poi.Adname,
			Rating:   string(poi.BizExt.Rating),
			Cost:     string(poi.BizExt.Cost),
		}
		if coord, err := parseLngLat(poi.Location); err == nil {
			p.Location = &coord
		}
		if len(poi.Photos) > 0 {
			p.PhotoURL = poi.Photos[0].URL
		}
		result.Places = append(result.Places, p)
	}
	return result, nil
}
