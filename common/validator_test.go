package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
}

func TestValidateAndDecode(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
		var p samplePayload
		assert.Nil(t, ValidateAndDecode(req, &p))
		assert.Equal(t, "a@b.co", p.Email)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		var p samplePayload
		appErr := ValidateAndDecode(req, &p)
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
		assert.Equal(t, "Invalid request body", appErr.Message)
	})

	t.Run("validation failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
		var p samplePayload
		appErr := ValidateAndDecode(req, &p)
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
		assert.Contains(t, appErr.Message, "Email")
	})
}

func TestAppError_Send(t *testing.T) {
	rr := httptest.NewRecorder()
	NewAppError(http.StatusTooManyRequests, "slow down", nil).Send(rr)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"code":429,"message":"slow down"}`, rr.Body.String())
}
