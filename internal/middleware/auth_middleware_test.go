package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/util"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type memoryBlacklist map[string]bool

func (m memoryBlacklist) IsTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	return m[tokenID], nil
}

func setupMiddlewareTest(blacklist TokenBlacklist) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	return router, NewAuthMiddleware(testJWTSecret, blacklist)
}

func generateTestTokens(t *testing.T, userID uint, role string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, "test@example.com", role, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func perform(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		claims, ok := GetClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role, "jti": claims.ID})
	})

	tokens := generateTestTokens(t, 7, "user")

	w := perform(router, http.MethodGet, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = perform(router, http.MethodGet, "/test", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authorized, no token")

	w = perform(router, http.MethodGet, "/test", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", errorCode(t, w))

	w = perform(router, http.MethodGet, "/test", tokens.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")

	w = perform(router, http.MethodGet, "/test?token="+tokens.AccessToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query tokens are only read on upgrade routes")
}

func TestAuthMiddleware_AuthenticateUpgrade(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/ws", auth.AuthenticateUpgrade(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	tokens := generateTestTokens(t, 9, "user")

	w := perform(router, http.MethodGet, "/ws?token="+tokens.AccessToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":9`)

	w = perform(router, http.MethodGet, "/ws", tokens.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/ws?token=garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", errorCode(t, w))
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tokens, err := util.GenerateTokenPair(1, "a@b.c", "user", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	w := perform(router, http.MethodGet, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_EXPIRED", errorCode(t, w))
}

func TestAuthMiddleware_BlacklistedToken(t *testing.T) {
	tokens := generateTestTokens(t, 1, "user")
	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)

	router, auth := setupMiddlewareTest(memoryBlacklist{claims.ID: true})
	router.GET("/test", auth.Authenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(router, http.MethodGet, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", errorCode(t, w))
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.OptionalAuthenticate(), func(c *gin.Context) {
		_, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	w := perform(router, http.MethodGet, "/test", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	w = perform(router, http.MethodGet, "/test", generateTestTokens(t, 3, "user").AccessToken)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	w = perform(router, http.MethodGet, "/test", "bad-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", errorCode(t, w))

	expired, err := util.GenerateTokenPair(3, "a@b.c", "user", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)
	w = perform(router, http.MethodGet, "/test", expired.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_EXPIRED", errorCode(t, w))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_OptionalAuthenticateRevoked(t *testing.T) {
	tokens := generateTestTokens(t, 4, "user")
	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)

	router, auth := setupMiddlewareTest(memoryBlacklist{claims.ID: true})
	router.GET("/test", auth.OptionalAuthenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(router, http.MethodGet, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", errorCode(t, w))
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.Authenticate(), auth.RequireAdmin(), func(c *gin.Context) {
		assert.True(t, IsAdmin(c))
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/admin", generateTestTokens(t, 1, string(model.RoleUser)).AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_ADMIN_ONLY", errorCode(t, w))

	w = perform(router, http.MethodGet, "/admin", generateTestTokens(t, 2, string(model.RoleAdmin)).AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}
