package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accountapp "github.com/fatoora/backend/internal/application/account"
)

// AccountService is account onboarding as seen by HTTP
type AccountService interface {
	Register(ctx context.Context, userID uuid.UUID) (*accountapp.AccountResponse, bool, error)
	Get(ctx context.Context, accountID uuid.UUID) (*accountapp.AccountResponse, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, req accountapp.UpdateProfileRequest) (*accountapp.AccountResponse, error)
	ConfigureFiscal(ctx context.Context, accountID uuid.UUID) (*accountapp.AccountResponse, error)
	AddCatalogEntry(ctx context.Context, accountID uuid.UUID, req accountapp.CreateCatalogEntryRequest) (*accountapp.CatalogEntryResponse, error)
	AddCustomer(ctx context.Context, accountID uuid.UUID, req accountapp.CreateCustomerRequest) (*accountapp.CustomerResponse, error)
}

// AccountHandler handles account, catalog and customer requests
type AccountHandler struct {
	BaseHandler
	service AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register creates the caller's account on first use
func (h *AccountHandler) Register(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	acc, created, err := h.service.Register(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, acc)
		return
	}
	h.Success(c, acc)
}

// Get returns the caller's account
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	acc, err := h.service.Get(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}

// UpdateProfile replaces the seller settings
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var req accountapp.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	acc, err := h.service.UpdateProfile(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}

// ConfigureFiscal records tax-authority onboarding
func (h *AccountHandler) ConfigureFiscal(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	acc, err := h.service.ConfigureFiscal(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}

// AddCatalogEntry adds a priced product
func (h *AccountHandler) AddCatalogEntry(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var req accountapp.CreateCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	entry, err := h.service.AddCatalogEntry(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// AddCustomer adds a buyer to the address book
func (h *AccountHandler) AddCustomer(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}
	var req accountapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	customer, err := h.service.AddCustomer(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}
