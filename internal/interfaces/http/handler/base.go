// Package handler adapts HTTP requests to the application services.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/interfaces/http/dto"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common response helpers
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// BindError answers a failed ShouldBind. Validator failures list the
// offending fields; anything else is a malformed body.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), details))
		return
	}
	h.BadRequest(c, "Malformed request body")
}

// HandleError maps an application error to its HTTP response: validation
// 422, conflict 409, invariant 500 with its code, not found 404, forbidden 403.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, info := dto.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("code", info.Code),
			zap.Error(err))
	}
	_ = c.Error(err)

	resp := dto.NewErrorResponseWithRequestID(info.Code, info.Message, getRequestID(c))
	resp.Error.Field = info.Field
	c.JSON(status, resp)
}

// accountID returns the caller's account, answering 401 when absent
func (h *BaseHandler) accountID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetAccountID(c)
	if !ok {
		h.Unauthorized(c, "account not resolved")
	}
	return id, ok
}

// userID returns the caller, answering 401 when absent
func (h *BaseHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		h.Unauthorized(c, "user not identified")
	}
	return id, ok
}

// pathID parses a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
