package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/logger"
)

// EntitlementChecker decides whether a user may use paid features
type EntitlementChecker interface {
	RequireEntitlement(ctx context.Context, userID uuid.UUID) error
}

// RequireEntitlement rejects callers whose trial ended or whose subscription
// expired with 403 and the denial reason as error code.
func RequireEntitlement(checker EntitlementChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			abortWithError(c, shared.NewForbiddenError("NOT_ACTIVE", "user not identified"))
			return
		}
		if err := checker.RequireEntitlement(c.Request.Context(), userID); err != nil {
			if shared.IsForbidden(err) {
				logger.FromContext(c.Request.Context()).Info("entitlement denied",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
