package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	subscriptionapp "github.com/fatoora/backend/internal/application/subscription"
)

// SubscriptionService is the entitlement engine as seen by HTTP
type SubscriptionService interface {
	EvaluateEntitlement(ctx context.Context, userID uuid.UUID) (*subscriptionapp.EntitlementResponse, error)
	EvaluateCanPay(ctx context.Context, userID uuid.UUID) (*subscriptionapp.EntitlementResponse, error)
	CreatePayment(ctx context.Context, userID uuid.UUID, req subscriptionapp.CreatePaymentRequest) (*subscriptionapp.RecordResponse, error)
	ApplyCompletedPayment(ctx context.Context, recordID uuid.UUID) (*subscriptionapp.RecordResponse, error)
	HandlePaymentCallback(ctx context.Context, req subscriptionapp.PaymentCallbackRequest) (*subscriptionapp.CallbackResponse, error)
	ListRecords(ctx context.Context, userID uuid.UUID) ([]subscriptionapp.RecordResponse, error)
	ListPackages(ctx context.Context) ([]subscriptionapp.PackageResponse, error)
	CreatePackage(ctx context.Context, req subscriptionapp.CreatePackageRequest) (*subscriptionapp.PackageResponse, error)
}

// SubscriptionHandler handles entitlement and subscription payment requests
type SubscriptionHandler struct {
	BaseHandler
	service SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(service SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Entitlement reports whether the caller may use paid features
func (h *SubscriptionHandler) Entitlement(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	d, err := h.service.EvaluateEntitlement(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// CanPay reports whether the caller may start a new payment
func (h *SubscriptionHandler) CanPay(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	d, err := h.service.EvaluateCanPay(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// CreatePayment opens a pending subscription record for a package
func (h *SubscriptionHandler) CreatePayment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req subscriptionapp.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	record, err := h.service.CreatePayment(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// ListRecords returns the caller's subscription records, newest first
func (h *SubscriptionHandler) ListRecords(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	records, err := h.service.ListRecords(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// ListPackages returns the purchasable packages
func (h *SubscriptionHandler) ListPackages(c *gin.Context) {
	packages, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, packages)
}

// CreatePackage adds a purchasable package
func (h *SubscriptionHandler) CreatePackage(c *gin.Context) {
	var req subscriptionapp.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	pkg, err := h.service.CreatePackage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pkg)
}

// ApplyPayment applies a completed record's time to the subscription.
// Repeated calls are no-ops.
func (h *SubscriptionHandler) ApplyPayment(c *gin.Context) {
	recordID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.service.ApplyCompletedPayment(c.Request.Context(), recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// PaymentCallback receives the payment gateway's notification. Duplicate
// deliveries answer 200 with already_processed set.
func (h *SubscriptionHandler) PaymentCallback(c *gin.Context) {
	var req subscriptionapp.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.service.HandlePaymentCallback(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
