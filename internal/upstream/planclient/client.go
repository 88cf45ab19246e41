// Package planclient fetches generated itineraries from the chat backend
// and keeps a short-lived Redis copy so reopening a planning view does not
// hit the generator again.
package planclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
	"github.com/voyplan/voyplan/internal/pkg/retry"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 15 * time.Minute
)

// httpStatusError carries the upstream status for retry decisions.
type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// Client fetches plan documents over HTTP with a Redis read-through cache.
// The redis client may be nil, in which case every fetch goes upstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	rdb        *redis.Client
	cacheTTL   time.Duration
	policy     retry.Policy
	logger     *zap.Logger
}

func New(baseURL string, rdb *redis.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		rdb:        rdb,
		cacheTTL:   defaultCacheTTL,
		policy:     retry.Exponential(4, 200*time.Millisecond),
		logger:     logger,
	}
}

func cacheKey(chatSessionID string) string {
	return "plan:" + chatSessionID
}

// FetchPlan returns the itinerary for a chat session, from cache when
// possible. A missing plan upstream maps to models.ErrNotFound.
func (c *Client) FetchPlan(ctx context.Context, chatSessionID string) (*models.PlanDocument, error) {
	if doc := c.cached(ctx, chatSessionID); doc != nil {
		return doc, nil
	}

	doc, err := c.fetch(ctx, chatSessionID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, chatSessionID, doc)
	return doc, nil
}

// Invalidate drops the cached copy, used when the chat regenerates the plan.
func (c *Client) Invalidate(ctx context.Context, chatSessionID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(chatSessionID)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cached plan",
			zap.String("chat_session_id", chatSessionID),
			zap.Error(err))
	}
}

func (c *Client) cached(ctx context.Context, chatSessionID string) *models.PlanDocument {
	if c.rdb == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, cacheKey(chatSessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Plan cache read failed", zap.Error(err))
		}
		return nil
	}

	var doc models.PlanDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.logger.Warn("Discarding corrupt cached plan",
			zap.String("chat_session_id", chatSessionID),
			zap.Error(err))
		return nil
	}
	return &doc
}

func (c *Client) store(ctx context.Context, chatSessionID string, doc *models.PlanDocument) {
	if c.rdb == nil {
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("Failed to marshal plan for cache", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(chatSessionID), raw, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("Plan cache write failed", zap.Error(err))
	}
}

func (c *Client) fetch(ctx context.Context, chatSessionID string) (*models.PlanDocument, error) {
	url := fmt.Sprintf("%s/plan/%s", c.baseURL, chatSessionID)

	var doc *models.PlanDocument
	err := c.policy.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(err, "fetch plan")
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}

		var parsed models.PlanDocument
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return errors.Wrap(err, "decode plan")
		}
		doc = &parsed
		return nil
	}, transient)

	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// transient reports whether the failure is worth another attempt: network
// errors retry, HTTP errors only for 429 and 5xx.
func transient(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}
