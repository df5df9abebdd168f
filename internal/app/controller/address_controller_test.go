package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
)

func addressBody(street string, primary bool) map[string]interface{} {
	return map[string]interface{}{
		"street":     street,
		"city":       "Lisbon",
		"country":    "PT",
		"zip":        "1000-001",
		"is_primary": primary,
	}
}

func (e *testEnv) addAddress(token, street string, primary bool) map[string]interface{} {
	w := e.do(http.MethodPost, "/api/v1/auth/address", token, addressBody(street, primary))
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(e.t, w)["address"].(map[string]interface{})
}

func primaryStreets(t *testing.T, env *testEnv, token string) []string {
	w := env.do(http.MethodGet, "/api/v1/auth/address", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var streets []string
	for _, raw := range decodeBody(t, w)["addresses"].([]interface{}) {
		a := raw.(map[string]interface{})
		if a["is_primary"].(bool) {
			streets = append(streets, a["street"].(string))
		}
	}
	return streets
}

func TestAddressController_FirstAddressIsPrimary(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("addr@example.com", model.RoleUser)

	first := env.addAddress(token, "1 Main St", false)
	assert.Equal(t, true, first["is_primary"])

	second := env.addAddress(token, "2 Side St", false)
	assert.Equal(t, false, second["is_primary"])
	assert.Equal(t, []string{"1 Main St"}, primaryStreets(t, env, token))
}

func TestAddressController_SetPrimaryLeavesOne(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("addr@example.com", model.RoleUser)

	env.addAddress(token, "1 Main St", false)
	b := env.addAddress(token, "2 Side St", false)

	w := env.do(http.MethodPut, fmt.Sprintf("/api/v1/auth/address/%v/primary", b["id"]), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"2 Side St"}, primaryStreets(t, env, token))

	env.addAddress(token, "3 New St", true)
	assert.Equal(t, []string{"3 New St"}, primaryStreets(t, env, token))
}

func TestAddressController_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("owner@example.com", model.RoleUser)
	_, otherToken := env.createUser("other@example.com", model.RoleUser)

	a := env.addAddress(token, "1 Main St", false)
	path := fmt.Sprintf("/api/v1/auth/address/%v", a["id"])

	w := env.do(http.MethodPut, path, token, addressBody("1 Main Street", true))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1 Main Street", decodeBody(t, w)["address"].(map[string]interface{})["street"])

	w = env.do(http.MethodPut, path, otherToken, addressBody("Hijack", false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzOwnerOnly, errorCode(t, w))

	w = env.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, primaryStreets(t, env, token))

	w = env.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.AddressNotFound, errorCode(t, w))
}

func TestAddressController_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("addr@example.com", model.RoleUser)

	w := env.do(http.MethodPost, "/api/v1/auth/address", token, map[string]string{"city": "Lisbon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidInput, errorCode(t, w))

	w = env.do(http.MethodPut, "/api/v1/auth/address/abc", token, addressBody("x", false))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidID, errorCode(t, w))
}
