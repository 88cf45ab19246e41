// Package chat proxies the itinerary-generating chat backend: messages are
// forwarded and the backend's SSE stream is relayed to the client unchanged.
package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/pkg/config"
)

type ChatHandlers struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

func NewChatHandlers(cfg *config.Config, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		// No overall timeout: SSE streams stay open as long as the
		// generator keeps producing.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.Upstream.ChatBaseURL, "/"),
		logger:     logger,
	}
}

type sendMessageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// HandleStreamMessage forwards a chat message upstream and relays the
// resulting SSE stream. Data lines pass through untouched; everything else
// is dropped.
func (h *ChatHandlers) HandleStreamMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// SSE clients ask with query parameters; accept those too.
		req.SessionID = c.Query("session_id")
		req.Message = c.Query("message")
	}
	if req.SessionID == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and message are required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	body, err := json.Marshal(map[string]string{
		"session_id": req.SessionID,
		"message":    req.Message,
	})
	if err != nil {
		h.emitError(c, "Failed to process request")
		return
	}

	upstreamURL := fmt.Sprintf("%s/chat/%s/stream", h.baseURL, req.SessionID)
	upstreamReq, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		h.emitError(c, "Failed to process request")
		return
	}
	upstreamReq.Header.Set("Content-Type", "application/json")
	upstreamReq.Header.Set("Accept", "text/event-stream")

	resp, err := h.httpClient.Do(upstreamReq)
	if err != nil {
		h.logger.Error("Failed to reach chat backend",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		h.emitError(c, "Failed to connect to AI service")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Error("Chat backend returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.String("session_id", req.SessionID))
		h.emitError(c, "AI service unavailable")
		return
	}

	started := time.Now()
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
	}
	if err := scanner.Err(); err != nil {
		h.logger.Warn("Chat stream interrupted",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
	}

	fmt.Fprintf(c.Writer, "data: %s\n\n", `{"type":"done"}`)
	c.Writer.Flush()

	h.logger.Info("Chat stream completed",
		zap.String("session_id", req.SessionID),
		zap.Duration("duration", time.Since(started)))
}

// HandleGetHistory proxies the session's message history.
func (h *ChatHandlers) HandleGetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	h.proxyJSON(c, http.MethodGet, fmt.Sprintf("%s/chat/%s/history", h.baseURL, sessionID))
}

// HandleClearHistory deletes the session's message history upstream.
func (h *ChatHandlers) HandleClearHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	h.proxyJSON(c, http.MethodDelete, fmt.Sprintf("%s/chat/%s/history", h.baseURL, sessionID))
}

func (h *ChatHandlers) proxyJSON(c *gin.Context, method, url string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), method, url, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("Failed to reach chat backend", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI service unavailable"})
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(resp.StatusCode, resp.ContentLength, "application/json", resp.Body, nil)
}

func (h *ChatHandlers) emitError(c *gin.Context, message string) {
	payload, _ := json.Marshal(map[string]string{"type": "error", "content": message})
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	c.Writer.Flush()
}
