package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "Record not found",
			err:      fmt.Errorf("find: %w", gorm.ErrRecordNotFound),
			context:  "get product",
			wantCode: ResourceNotFound,
			wantMsg:  "Product not found",
		},
		{
			name:     "Postgres duplicate email",
			err:      fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`),
			context:  "register",
			wantCode: AuthEmailAlreadyExists,
		},
		{
			name:     "SQLite duplicate review",
			err:      fmt.Errorf("UNIQUE constraint failed: reviews.product_id, reviews.user_id"),
			context:  "create review",
			wantCode: ReviewAlreadyExists,
		},
		{
			name:     "Unknown error",
			err:      fmt.Errorf("something odd"),
			context:  "update order",
			wantCode: InternalServerError,
			wantMsg:  "Failed to update resource, please retry shortly",
		},
		{
			name:     "Nil error",
			wantCode: InternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, info.Message)
			}
		})
	}
}

func TestRespondWithBindingError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type body struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	var req body
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)
	RespondWithBindingError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ValidationInvalidInput, resp.Error)
	assert.NotEmpty(t, resp.Message)
}
