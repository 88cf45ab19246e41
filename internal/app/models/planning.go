package models

// GeoCoordinate is a resolved map position. A nil *GeoCoordinate on an
// enriched item means the place name could not be located.
type GeoCoordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ScheduleItem is one stop of a raw AI-generated day plan, as delivered by
// the upstream itinerary source. Immutable once fetched.
type ScheduleItem struct {
	POI      string `json:"poi"`
	Time     string `json:"time,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// EnrichedScheduleItem is a ScheduleItem after coordinate resolution and
// transport estimation. TransportToNext is never set on the last valid item
// of a day.
type EnrichedScheduleItem struct {
	ScheduleItem
	Coordinate      *GeoCoordinate `json:"coordinate,omitempty"`
	TransportToNext *TransportPlan `json:"transport_to_next,omitempty"`
}

// TransportType enumerates the supported travel modes between two stops.
type TransportType string

const (
	TransportWalk    TransportType = "walk"
	TransportTransit TransportType = "transit"
	TransportTaxi    TransportType = "taxi"
)

// TransportOption is a single travel-mode proposal for a leg.
type TransportOption struct {
	Type      TransportType `json:"type"`
	Label     string        `json:"label"`
	Time      string        `json:"time"`
	RawTime   int           `json:"raw_time"` // seconds
	Price     string        `json:"price"`
	Desc      string        `json:"desc"`
	Recommend bool          `json:"recommend"`
}

// TransportPlan groups the options for one leg. When Options is non-empty,
// exactly one option carries Recommend=true and it is first in the slice;
// the remainder are sorted by ascending RawTime.
type TransportPlan struct {
	Summary string            `json:"summary"`
	Options []TransportOption `json:"options"`
}

// DayPlan is the enriched result for one day of the itinerary. ValidPOIs
// holds the subset of Schedule with resolved coordinates, in schedule order;
// it is what anchors route drawing.
type DayPlan struct {
	Day       int                    `json:"day"`
	Schedule  []EnrichedScheduleItem `json:"schedule"`
	ValidPOIs []EnrichedScheduleItem `json:"valid_pois"`
}

// RawDay is one unenriched day as delivered by the itinerary source.
type RawDay struct {
	Day      int            `json:"day"`
	Schedule []ScheduleItem `json:"schedule"`
}

// PlanDocument is the upstream itinerary payload for a chat session.
type PlanDocument struct {
	Destination string `json:"destination"`
	Plan        struct {
		Days []RawDay `json:"days"`
	} `json:"plan"`
}

// RouteDrawing is the outcome of a successful route draw on the map surface.
// It is what the planning API hands back to the client for rendering.
type RouteDrawing struct {
	Mode            string          `json:"mode"` // "full_day" or "single_leg"
	Origin          GeoCoordinate   `json:"origin"`
	Destination     GeoCoordinate   `json:"destination"`
	Waypoints       []GeoCoordinate `json:"waypoints,omitempty"`
	Polyline        []GeoCoordinate `json:"polyline,omitempty"`
	DistanceMeters  int             `json:"distance_meters"`
	DurationSeconds int             `json:"duration_seconds"`
}

// ViewSelectionState mirrors what the planning view currently shows.
type ViewSelectionState struct {
	ActiveDayIndex   int  `json:"active_day_index"`
	SelectedLegIndex *int `json:"selected_leg_index"`
	SidebarVisible   bool `json:"sidebar_visible"`
}
