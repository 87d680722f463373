package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/logger"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveAccountID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func newAccountRouter(resolver AccountResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(UserContext(), AccountContext(resolver))
	router.GET("/whoami", func(c *gin.Context) {
		userID, _ := GetUserID(c)
		accountID, _ := GetAccountID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":        userID.String(),
			"account_id":     accountID.String(),
			"logged_account": logger.GetAccountID(c.Request.Context()),
		})
	})
	return router
}

func TestAccountContext(t *testing.T) {
	t.Run("resolves the caller's account", func(t *testing.T) {
		resolver := new(mockResolver)
		userID, accountID := uuid.New(), uuid.New()
		resolver.On("ResolveAccountID", mock.Anything, userID).Return(accountID, nil)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		newAccountRouter(resolver).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, accountID.String(), body["account_id"])
		assert.Equal(t, accountID.String(), body["logged_account"])
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		resolver := new(mockResolver)

		w := httptest.NewRecorder()
		newAccountRouter(resolver).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resolver.AssertNotCalled(t, "ResolveAccountID", mock.Anything, mock.Anything)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, "not-a-uuid")
		w := httptest.NewRecorder()
		newAccountRouter(new(mockResolver)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unregistered user gets 404", func(t *testing.T) {
		resolver := new(mockResolver)
		userID := uuid.New()
		resolver.On("ResolveAccountID", mock.Anything, userID).Return(uuid.Nil, shared.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		newAccountRouter(resolver).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ACCOUNT_NOT_FOUND")
	})

	t.Run("storage failure is opaque 500", func(t *testing.T) {
		resolver := new(mockResolver)
		userID := uuid.New()
		resolver.On("ResolveAccountID", mock.Anything, userID).Return(uuid.Nil, errors.New("connection reset"))

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		newAccountRouter(resolver).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}
