// Package attractions serves the paged POI search behind the attraction
// browser: a keyword or category is turned into a provider text search and
// the raw POIs are condensed into displayable cards.
package attractions

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/adapters/amap"
	"github.com/voyplan/voyplan/internal/app/models"
)

const defaultPageSize = 12

// categoryKeywords maps a browse category to the provider keyword group it
// searches for. The keywords are Chinese because the provider's POI corpus is.
var categoryKeywords = map[string]string{
	"all":           "景点|旅游",
	"nature":        "风景名胜|公园|山|湖泊",
	"culture":       "博物馆|古迹|寺庙|教堂|历史建筑",
	"entertainment": "游乐园|动物园|植物园|度假村",
	"food":          "美食街|特色餐饮|步行街",
}

// Searcher is the provider's paged POI text search.
type Searcher interface {
	SearchPlaces(ctx context.Context, keywords, city string, page, pageSize int) (*amap.PlaceSearchResult, error)
}

// Handlers exposes the attraction search over HTTP.
type Handlers struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewHandlers(searcher Searcher, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{searcher: searcher, logger: logger}
}

// HandleSearch runs a paged attraction search.
// GET /api/attractions?keyword=&category=&city=&page=
func (h *Handlers) HandleSearch(c *gin.Context) {
	category := c.DefaultQuery("category", "all")
	keywords, ok := searchQuery(c.Query("keyword"), category)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		page = n
	}

	result, err := h.searcher.SearchPlaces(c.Request.Context(), keywords, c.Query("city"), page, defaultPageSize)
	if err != nil {
		h.logger.Error("Attraction search failed",
			zap.String("keywords", keywords),
			zap.Error(err))
		if amap.IsRateLimited(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search provider busy, try again shortly"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "search provider unavailable"})
		return
	}

	pageOut := models.AttractionPage{
		Attractions: make([]models.Attraction, 0, len(result.Places)),
		Page:        page,
		PageSize:    defaultPageSize,
		Total:       result.Total,
	}
	for _, p := range result.Places {
		pageOut.Attractions = append(pageOut.Attractions, toAttraction(p))
	}
	c.JSON(http.StatusOK, pageOut)
}

// searchQuery combines the free-text keyword with the category: the keyword
// wins when present, and a non-all category narrows it with its first
// keyword. Without a keyword the category's whole keyword group is searched.
func searchQuery(keyword, category string) (string, bool) {
	group, ok := categoryKeywords[category]
	if !ok {
		return "", false
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return group, true
	}
	if category == "all" {
		return keyword, true
	}
	return keyword + " " + strings.SplitN(group, "|", 2)[0], true
}

// toAttraction condenses a raw POI into a card. The provider's type field is
// a ";"-joined path; its head names the category and the first three
// segments make usable tags.
func toAttraction(p amap.Place) models.Attraction {
	a := models.Attraction{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Rating:     p.Rating,
		Price:      p.Cost,
		Image:      p.PhotoURL,
		Coordinate: p.Location,
	}

	parts := make([]string, 0, 3)
	for _, s := range []string{p.Province, p.City, p.District} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	a.Location = strings.Join(parts, "·")

	if p.Type != "" {
		segments := strings.Split(p.Type, ";")
		a.Category = segments[0]
		if len(segments) > 3 {
			segments = segments[:3]
		}
		a.Tags = segments
	}
	return a
}
