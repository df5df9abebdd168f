package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
)

func orderPayload() map[string]interface{} {
	return map[string]interface{}{
		"shipping_address": map[string]string{
			"street":  "1 Main St",
			"city":    "Lisbon",
			"country": "PT",
		},
		"payment_method": "PayPal",
		"payment_result": map[string]string{
			"id":     "PAY-123",
			"status": "COMPLETED",
		},
	}
}

// placeOrder fills the user's cart with product and checks out
func (e *testEnv) placeOrder(token string, product *model.Product, quantity int) map[string]interface{} {
	w := e.do(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   quantity,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/v1/orders", token, orderPayload())
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(e.t, w)["order"].(map[string]interface{})
}

func TestOrderController_CreateOrder(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("buyer@example.com", model.RoleUser)
	product := env.createProduct("Chair", 100, true)

	order := env.placeOrder(token, product, 2)
	assert.Equal(t, float64(200), order["total_price"])
	assert.Equal(t, string(model.OrderStatusProcessing), order["status"])
	assert.Equal(t, true, order["is_paid"])
	assert.Len(t, order["order_items"], 1)

	w := env.do(http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, float64(0), decodeBody(t, w)["item_count"], "checkout clears the cart")

	w = env.do(http.MethodPost, "/api/v1/orders", token, orderPayload())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CartEmpty, errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/orders/myorders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestOrderController_CreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("buyer@example.com", model.RoleUser)
	product := env.createProduct("Chair", 100, true)

	w := env.do(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{"product_id": product.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	payload := orderPayload()
	payload["payment_result"] = map[string]string{"status": "COMPLETED"}
	w = env.do(http.MethodPost, "/api/v1/orders", token, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = orderPayload()
	delete(payload, "shipping_address")
	w = env.do(http.MethodPost, "/api/v1/orders", token, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.OrderShippingRequired, errorCode(t, w))

	w = env.do(http.MethodPost, "/api/v1/auth/address", token, addressBody("9 Primary Rd", false))
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/api/v1/orders", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shipping := decodeBody(t, w)["order"].(map[string]interface{})["shipping_address"].(map[string]interface{})
	assert.Equal(t, "9 Primary Rd", shipping["street"])
}

func TestOrderController_Access(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.createUser("owner@example.com", model.RoleUser)
	_, otherToken := env.createUser("other@example.com", model.RoleUser)
	_, adminToken := env.createUser("admin@example.com", model.RoleAdmin)
	product := env.createProduct("Chair", 100, true)

	order := env.placeOrder(ownerToken, product, 1)
	path := fmt.Sprintf("/api/v1/orders/%v", order["id"])

	w := env.do(http.MethodGet, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/orders/9999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.OrderNotFound, errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/orders/all", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/v1/orders/all", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestOrderController_StatusAndInvoice(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.createUser("owner@example.com", model.RoleUser)
	_, adminToken := env.createUser("admin@example.com", model.RoleAdmin)
	product := env.createProduct("Chair", 100, true)

	order := env.placeOrder(ownerToken, product, 1)
	path := fmt.Sprintf("/api/v1/orders/%v", order["id"])

	w := env.do(http.MethodGet, path+"/invoice", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.OrderNotDelivered, errorCode(t, w))

	w = env.do(http.MethodPut, path, ownerToken, map[string]string{"status": "Delivered"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, path, adminToken, map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidInput, errorCode(t, w))

	w = env.do(http.MethodPut, path, adminToken, map[string]string{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody(t, w)["order"].(map[string]interface{})
	assert.Equal(t, "Delivered", updated["status"])
	assert.NotEmpty(t, updated["delivered_at"])

	w = env.do(http.MethodGet, path+"/invoice", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfContentType, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestOrderController_Export(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.createUser("owner@example.com", model.RoleUser)
	_, adminToken := env.createUser("admin@example.com", model.RoleAdmin)
	env.placeOrder(ownerToken, env.createProduct("Chair", 100, true), 1)

	w := env.do(http.MethodGet, "/api/v1/orders/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}
