package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/shared"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		field    string
		internal bool
	}{
		{
			name:   "validation",
			err:    shared.NewValidationError("INVALID_PERCENTAGE", "discount_amount", "percentage must not exceed 100"),
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_PERCENTAGE",
			field:  "discount_amount",
		},
		{
			name:   "conflict",
			err:    shared.NewConflictError("CONCURRENT_MODIFICATION", "modified"),
			status: http.StatusConflict,
			code:   "CONCURRENT_MODIFICATION",
		},
		{
			name:   "invariant keeps its code",
			err:    shared.NewInvariantViolation("DOCUMENT_SEALED", "sealed"),
			status: http.StatusInternalServerError,
			code:   "DOCUMENT_SEALED",
		},
		{
			name:   "wrapped not found",
			err:    fmt.Errorf("load document: %w", shared.ErrNotFound),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "forbidden",
			err:    shared.NewForbiddenError("TRIAL_ENDED", "trial ended"),
			status: http.StatusForbidden,
			code:   "TRIAL_ENDED",
		},
		{
			name:   "plain error is opaque",
			err:    errors.New("dial tcp: connection refused"),
			status: http.StatusInternalServerError,
			code:   ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := ErrorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.field, info.Field)
			assert.NotContains(t, info.Message, "connection refused")
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Document not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.IsZero())
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "payment_method", Message: "Must be one of: 10 30 42 48"},
		{Field: "items", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "payment_method", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.pageSize), func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.pages, resp.Meta.TotalPages)
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID("OFFER_EXPIRED", "offer expired", "req-1")
	resp.Error.Field = "valid_until"

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, "OFFER_EXPIRED", errObj["code"])
	assert.Equal(t, "valid_until", errObj["field"])
	assert.NotContains(t, decoded, "data")
}
