package chat

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/pkg/config"
)

func newChatRouter(upstreamURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Upstream.ChatBaseURL = upstreamURL

	h := NewChatHandlers(cfg, zap.NewNop())
	r := gin.New()
	r.POST("/api/chat/stream", h.HandleStreamMessage)
	r.GET("/api/chat/:sessionId/history", h.HandleGetHistory)
	r.DELETE("/api/chat/:sessionId/history", h.HandleClearHistory)
	return r
}

func TestStreamMessageRelaysSSE(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/sess-1/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"content\":\"Day 1\"}\n\n")
		fmt.Fprint(w, ": comment line ignored\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	r := newChatRouter(upstream.URL)
	req, _ := http.NewRequest(http.MethodPost, "/api/chat/stream",
		strings.NewReader(`{"session_id":"sess-1","message":"plan nanjing"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, `data: {"type":"content","content":"Day 1"}`)
	assert.Contains(t, body, `data: {"type":"done"}`)
	assert.NotContains(t, body, "comment line")
}

func TestStreamMessageRequiresFields(t *testing.T) {
	r := newChatRouter("http://localhost:0")
	req, _ := http.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamMessageUpstreamFailureEmitsErrorEvent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	r := newChatRouter(upstream.URL)
	req, _ := http.NewRequest(http.MethodPost, "/api/chat/stream",
		strings.NewReader(`{"session_id":"sess-1","message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"type":"error"`)
}

func TestClearHistoryProxiesDelete(t *testing.T) {
	var gotMethod, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cleared":true}`)
	}))
	defer upstream.Close()

	r := newChatRouter(upstream.URL)
	req, _ := http.NewRequest(http.MethodDelete, "/api/chat/sess-1/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/chat/sess-1/history", gotPath)
	assert.Contains(t, w.Body.String(), "cleared")
}
