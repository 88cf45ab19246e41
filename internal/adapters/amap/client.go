// Package amap is a thin client for the AMap Web Service REST API. It covers
// the capabilities the app needs: geocoding, driving, transit and walking
// directions, and POI text search. The client performs no retries of its own;
// retry and timeout policy belongs to the callers.
package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

// ErrRateLimited signals the provider's CUQPS-class throttling response.
var ErrRateLimited = errors.New("amap: request rate limit exceeded")

// ErrNoResult signals a well-formed response that contains no usable data.
var ErrNoResult = errors.New("amap: no result")

// RouteEstimate is the condensed outcome of a single directions query.
type RouteEstimate struct {
	DurationSeconds int
	DistanceMeters  int
	Cost            float64
	SegmentDesc     string
}

// Client talks to the AMap Web Service API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	logger     *zap.Logger
}

// New creates a Client. baseURL defaults to the public endpoint when empty.
func New(baseURL, key string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://restapi.amap.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		logger:     logger,
	}
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("amap: status %d: %s", e.Code, e.Body)
}

// envelope is the common wrapper of every AMap response.
type envelope struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
}

// get issues a GET against path with the given query values and decodes the
// body into out. It maps the provider's throttle signal to ErrRateLimited.
func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	q.Set("key", c.key)
	q.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != "1" {
		if isRateLimitInfo(env.Info) || env.Infocode == "10021" {
			return fmt.Errorf("%w: %s", ErrRateLimited, env.Info)
		}
		return fmt.Errorf("amap: request rejected: %s (%s)", env.Info, env.Infocode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isRateLimitInfo(info string) bool {
	up := strings.ToUpper(info)
	return strings.Contains(up, "CUQPS") || strings.Contains(up, "LIMIT")
}

// IsRateLimited reports whether err is the provider's throttle signal.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func formatLngLat(c models.GeoCoordinate) string {
	return strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}

// parseLngLat parses the provider's "lng,lat" coordinate encoding.
func parseLngLat(s string) (models.GeoCoordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return models.GeoCoordinate{}, fmt.Errorf("amap: malformed coordinate %q", s)
	}
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return models.GeoCoordinate{}, fmt.Errorf("amap: malformed longitude %q", parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.GeoCoordinate{}, fmt.Errorf("amap: malformed latitude %q", parts[1])
	}
	return models.GeoCoordinate{Lng: lng, Lat: lat}, nil
}

// atoiLoose parses the provider's stringly-typed numbers, tolerating decimals.
func atoiLoose(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
