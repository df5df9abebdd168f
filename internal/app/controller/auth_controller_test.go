package controller

import (
	"image/color"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
)

func tokensFrom(t *testing.T, body map[string]interface{}) (string, string) {
	tokens, ok := body["tokens"].(map[string]interface{})
	require.True(t, ok, "tokens missing from %v", body)
	return tokens["access_token"].(string), tokens["refresh_token"].(string)
}

func TestAuthController_Register(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	access, refresh := tokensFrom(t, body)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	t.Run("duplicate email", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name":     "Ada Again",
			"email":    "ada@example.com",
			"password": "secret123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.AuthEmailAlreadyExists, errorCode(t, w))
	})

	t.Run("short password", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name":     "Bob",
			"email":    "bob@example.com",
			"password": "123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, apperrors.ValidationInvalidInput, body["error"])
		assert.Contains(t, body["fields"], "password")
	})
}

func TestAuthController_Login(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("login@example.com", model.RoleUser)

	w := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "LOGIN@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access, _ := tokensFrom(t, decodeBody(t, w))

	w = env.do(http.MethodGet, "/api/v1/auth/profile", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "login@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthInvalidCredentials, errorCode(t, w))
}

func TestAuthController_LoginMergesGuestCart(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("shopper@example.com", model.RoleUser)
	product := env.createProduct("Lamp", 40, false)
	guest := header{"X-Guest-Session", "guest-merge-1"}

	w := env.do(http.MethodPost, "/api/v1/cart", "", map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	}, guest)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "secret123",
	}, guest)
	require.Equal(t, http.StatusOK, w.Code)
	access, _ := tokensFrom(t, decodeBody(t, w))

	w = env.do(http.MethodGet, "/api/v1/cart", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decodeBody(t, w)
	assert.Equal(t, float64(2), cart["item_count"])
	assert.Equal(t, float64(80), cart["total"])

	w = env.do(http.MethodGet, "/api/v1/cart", "", nil, guest)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["item_count"])
}

func TestAuthController_RefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Rotate",
		"email":    "rotate@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	_, refresh := tokensFrom(t, decodeBody(t, w))

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	newAccess, _ := tokensFrom(t, decodeBody(t, w))
	assert.NotEmpty(t, newAccess)

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": newAccess})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access tokens cannot refresh")
}

func TestAuthController_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("logout@example.com", model.RoleUser)

	w := env.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, errorCode(t, w))
}

func TestAuthController_Profile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("profile@example.com", model.RoleUser)
	env.createUser("taken@example.com", model.RoleUser)

	w := env.do(http.MethodPut, "/api/v1/auth/profile", token, map[string]string{
		"name":  "Renamed",
		"phone": "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Renamed", user["name"])
	assert.Equal(t, "555-0100", user["phone"])
	assert.Equal(t, "profile@example.com", user["email"])

	w = env.do(http.MethodPut, "/api/v1/auth/profile", token, map[string]string{"email": "taken@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.AuthEmailAlreadyExists, errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_UploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("avatar@example.com", model.RoleUser)

	req := multipartRequest(t, http.MethodPost, "/api/v1/auth/avatar", nil, map[string][][]byte{
		"avatar": {pngBytes(t, 2, 2, color.White)},
	})
	w := env.send(req, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Contains(t, user["avatar"], "http://localhost:8080/uploads/avatars/")

	req = multipartRequest(t, http.MethodPost, "/api/v1/auth/avatar", nil, map[string][][]byte{
		"avatar": {[]byte("plain text is not an image")},
	})
	w = env.send(req, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.UploadInvalidFileType, errorCode(t, w))

	req = multipartRequest(t, http.MethodPost, "/api/v1/auth/avatar", nil, nil)
	w = env.send(req, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
