package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       "test-secret-at-least-32-characters!!",
		TokenExpiration: time.Hour,
	}
}

func newAuthTestRouter(cfg JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", JWTAuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":       c.GetString("user_id"),
			"authenticated": c.GetBool("authenticated"),
		})
	})
	return r
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateToken(cfg, "user-1", "t@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthTestRouter(cfg).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
}

func TestMiddlewareHeaderWinsOverCookie(t *testing.T) {
	cfg := testJWTConfig()
	headerToken, err := GenerateToken(cfg, "header-user", "h@example.com")
	require.NoError(t, err)
	cookieToken, err := GenerateToken(cfg, "cookie-user", "c@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+headerToken)
	req.AddCookie(&http.Cookie{Name: authCookie, Value: cookieToken})
	newAuthTestRouter(cfg).ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":"header-user"`)
}

func TestMiddlewareAcceptsQueryTokenForSSE(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateToken(cfg, "sse-user", "s@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil)
	newAuthTestRouter(cfg).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"sse-user"`)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	newAuthTestRouter(testJWTConfig()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareOptionalFallsBackToAnonymous(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Optional = true

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token=garbage", nil)
	newAuthTestRouter(cfg).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"anonymous"`)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
