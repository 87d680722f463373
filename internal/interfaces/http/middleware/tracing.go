// Package middleware provides the gin middleware chain of the HTTP API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fatoora/backend/internal/infrastructure/logger"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns otelgin middleware. Spans are named after the route
// pattern (e.g. "GET /api/v1/documents/:id").
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request, user and account IDs to the active
// span. It belongs after the account middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := logger.GetRequestID(c.Request.Context()); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if userID, ok := GetUserID(c); ok {
		span.SetAttributes(attribute.String("user_id", userID.String()))
	}
	if accountID, ok := GetAccountID(c); ok {
		span.SetAttributes(attribute.String("account_id", accountID.String()))
	}
}

// SpanErrorMarker marks the span as failed for 4xx and 5xx responses.
// It belongs after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
