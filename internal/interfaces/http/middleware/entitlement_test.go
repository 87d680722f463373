package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fatoora/backend/internal/domain/shared"
)

type checkerFunc func(ctx context.Context, userID uuid.UUID) error

func (f checkerFunc) RequireEntitlement(ctx context.Context, userID uuid.UUID) error {
	return f(ctx, userID)
}

func TestRequireEntitlement(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		reached bool
	}{
		{name: "entitled user passes", status: http.StatusOK, reached: true},
		{
			name:   "ended trial is forbidden",
			err:    shared.NewForbiddenError("TRIAL_ENDED", "Your free trial has ended"),
			status: http.StatusForbidden,
			code:   "TRIAL_ENDED",
		},
		{
			name:   "expired subscription is forbidden",
			err:    shared.NewForbiddenError("SUBSCRIPTION_EXPIRED", "Your subscription has expired"),
			status: http.StatusForbidden,
			code:   "SUBSCRIPTION_EXPIRED",
		},
		{
			name:   "unknown user",
			err:    shared.ErrNotFound,
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			router.Use(UserContext(), RequireEntitlement(checkerFunc(func(context.Context, uuid.UUID) error {
				return tt.err
			})))
			router.POST("/documents", func(c *gin.Context) {
				reached = true
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/documents", nil)
			req.Header.Set(UserIDHeader, uuid.NewString())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.reached, reached)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}
