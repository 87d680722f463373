package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/interfaces/http/dto"
)

// Gin context keys and headers identifying the caller
const (
	UserIDHeader = "X-User-ID"
	UserIDKey    = "user_id"
	AccountIDKey = "account_id"
)

// AccountResolver maps a user to the account that issues their documents
type AccountResolver interface {
	ResolveAccountID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// UserContext reads the caller from the X-User-ID header. Identity is
// asserted by the gateway in front of this service.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "X-User-ID header is required")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "X-User-ID must be a UUID")
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// AccountContext resolves the caller's account. It must run after UserContext.
func AccountContext(resolver AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "user not identified")
			return
		}
		accountID, err := resolver.ResolveAccountID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abort(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "no account registered for this user")
				return
			}
			logger.FromContext(c.Request.Context()).Error("resolve account failed", zap.Error(err))
			abortWithError(c, err)
			return
		}
		c.Set(AccountIDKey, accountID)
		c.Request = c.Request.WithContext(logger.WithAccountID(c.Request.Context(), accountID.String()))
		c.Next()
	}
}

// GetUserID returns the caller set by UserContext
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, UserIDKey)
}

// GetAccountID returns the account set by AccountContext
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, AccountIDKey)
}

func uuidFrom(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, logger.GetRequestID(c.Request.Context())))
}

func abortWithError(c *gin.Context, err error) {
	status, info := dto.ErrorStatus(err)
	resp := dto.NewErrorResponseWithRequestID(info.Code, info.Message, logger.GetRequestID(c.Request.Context()))
	resp.Error.Field = info.Field
	c.AbortWithStatusJSON(status, resp)
}
