package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"CONFLICT", http.StatusConflict},
		{"VALIDATION_FAILED", http.StatusBadRequest},
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"FORBIDDEN", http.StatusForbidden},
		{"ACCOUNT_PENDING", http.StatusForbidden},
		{"ACCOUNT_SUSPENDED", http.StatusForbidden},
		{"UNAUTHORIZED", http.StatusUnauthorized},
		{"SESSION_EXPIRED", http.StatusUnauthorized},
		{"INVALID_CREDENTIALS", http.StatusUnauthorized},
		{"TOKEN_REVOKED", http.StatusUnauthorized},
		{"STORAGE_DISABLED", http.StatusServiceUnavailable},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
		// field-level codes
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"INVALID_PURCHASE_DATE", http.StatusBadRequest},
		{"PASSWORD_HASH_ERROR", http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Product not found", "req-123")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Product not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "customer_email", Message: "Invalid email format"},
		{Field: "purchase_date", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "customer_email", resp.Error.Details[0].Field)
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse([]string{"a", "b"}, 2)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestResponseJSONShape(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(map[string]string{"id": "x"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"id":"x"}}`, string(data))

	data, err = json.Marshal(NewErrorResponse(ErrCodeConflict, "Instance already registered"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	errBody, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", errBody["code"])
	assert.NotContains(t, errBody, "request_id")
	assert.NotContains(t, errBody, "details")
}
