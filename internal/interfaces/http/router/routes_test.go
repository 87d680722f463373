package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subscriptionapp "github.com/fatoora/backend/internal/application/subscription"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/interfaces/http/dto"
	"github.com/fatoora/backend/internal/interfaces/http/handler"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
)

// Unimplemented methods panic; a test reaching one means a guard let the
// request through.
type stubDocuments struct{ handler.DocumentService }

type stubAccounts struct{ handler.AccountService }

type stubSubscriptions struct{ handler.SubscriptionService }

func (stubSubscriptions) EvaluateEntitlement(context.Context, uuid.UUID) (*subscriptionapp.EntitlementResponse, error) {
	return &subscriptionapp.EntitlementResponse{Allowed: true}, nil
}

type resolverFunc func(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)

func (f resolverFunc) ResolveAccountID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return f(ctx, userID)
}

type checkerFunc func(ctx context.Context, userID uuid.UUID) error

func (f checkerFunc) RequireEntitlement(ctx context.Context, userID uuid.UUID) error {
	return f(ctx, userID)
}

type mountFixture struct {
	engine      *gin.Engine
	resolveErr  error
	entitlement error
}

func newMountFixture(t *testing.T, limiter *middleware.RateLimiter) *mountFixture {
	t.Helper()
	middleware.SetupValidator()
	f := &mountFixture{engine: gin.New()}

	Mount(f.engine, Handlers{
		System:        handler.NewSystemHandler("fatoora", "test", nil),
		Accounts:      handler.NewAccountHandler(stubAccounts{}),
		Documents:     handler.NewDocumentHandler(stubDocuments{}, nil),
		Subscriptions: handler.NewSubscriptionHandler(stubSubscriptions{}),
	}, Guards{
		Accounts: resolverFunc(func(context.Context, uuid.UUID) (uuid.UUID, error) {
			if f.resolveErr != nil {
				return uuid.Nil, f.resolveErr
			}
			return uuid.New(), nil
		}),
		Entitlement: checkerFunc(func(context.Context, uuid.UUID) error {
			return f.entitlement
		}),
		CallbackLimiter: limiter,
	})
	return f
}

func (f *mountFixture) do(method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestMount_Probes(t *testing.T) {
	f := newMountFixture(t, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/system/info", "", "").Code)
}

func TestMount_DocumentsRequireCaller(t *testing.T) {
	f := newMountFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/documents", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, responseCode(t, w))
}

func TestMount_UnregisteredUserHasNoAccount(t *testing.T) {
	f := newMountFixture(t, nil)
	f.resolveErr = shared.ErrNotFound

	w := f.do(http.MethodGet, "/api/v1/account", uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", responseCode(t, w))
}

func TestMount_DocumentWritesRequireEntitlement(t *testing.T) {
	f := newMountFixture(t, nil)
	f.entitlement = shared.NewForbiddenError("TRIAL_ENDED", "Your free trial has ended")
	docID := uuid.NewString()

	for _, path := range []string{
		"/api/v1/documents",
		"/api/v1/documents/" + docID + "/invoice-code-transition",
		"/api/v1/documents/" + docID + "/document-type-transition",
	} {
		w := f.do(http.MethodPost, path, uuid.NewString(), "{}")

		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, "TRIAL_ENDED", responseCode(t, w), path)
	}
}

func TestMount_SubscriptionNeedsOnlyUser(t *testing.T) {
	f := newMountFixture(t, nil)
	f.resolveErr = shared.ErrNotFound

	w := f.do(http.MethodGet, "/api/v1/subscription/entitlement", uuid.NewString(), "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMount_AdminRequiresCaller(t *testing.T) {
	f := newMountFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/admin/packages", "", "{}")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMount_PaymentCallbackIsPublicAndThrottled(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute, shared.NewFixedClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	defer limiter.Stop()
	f := newMountFixture(t, limiter)

	first := f.do(http.MethodPost, "/api/v1/payments/callback", "", "{}")
	second := f.do(http.MethodPost, "/api/v1/payments/callback", "", "{}")

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
