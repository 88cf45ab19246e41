package models

// Attraction is one POI as served by the attraction search. Rating and Price
// stay stringly typed because the provider leaves them empty for many POIs.
type Attraction struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Location   string         `json:"location"` // province·city·district
	Address    string         `json:"address,omitempty"`
	Category   string         `json:"category,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Rating     string         `json:"rating,omitempty"`
	Price      string         `json:"price,omitempty"`
	Image      string         `json:"image,omitempty"`
	Coordinate *GeoCoordinate `json:"coordinate,omitempty"`
}

// AttractionPage is one page of search results.
type AttractionPage struct {
	Attractions []Attraction `json:"attractions"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	Total       int          `json:"total"`
}
