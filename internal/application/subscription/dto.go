package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/subscription"
)

// CreatePaymentRequest represents a request to start paying for a package
type CreatePaymentRequest struct {
	PackageID      uuid.UUID        `json:"package_id" binding:"required"`
	DurationMonths int              `json:"duration" binding:"required,min=1,max=36"`
	Discount       *decimal.Decimal `json:"discount"`
}

// PaymentCallbackRequest is a payment gateway notification about a record
type PaymentCallbackRequest struct {
	CallbackID string    `json:"callback_id" binding:"required,max=128"`
	RecordID   uuid.UUID `json:"record_id" binding:"required"`
	Status     string    `json:"status" binding:"required,oneof=paid failed"`
	Note       string    `json:"note" binding:"max=500"`
}

// IsPaid reports whether the gateway confirmed the payment
func (r PaymentCallbackRequest) IsPaid() bool {
	return r.Status == "paid"
}

// CreatePackageRequest represents a request to add a purchasable package
type CreatePackageRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=100"`
	Description   string          `json:"description" binding:"max=2000"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	FiscalRelated bool            `json:"fiscal_related"`
}

// EntitlementResponse is an entitlement decision with its user-facing message
type EntitlementResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// RecordResponse represents a subscription record in API responses
type RecordResponse struct {
	ID                   uuid.UUID        `json:"id"`
	UserID               uuid.UUID        `json:"user_id"`
	PackageID            *uuid.UUID       `json:"package_id,omitempty"`
	Status               string           `json:"status"`
	DurationMonths       int              `json:"duration"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Discount             decimal.Decimal  `json:"discount"`
	ExpirationDate       *time.Time       `json:"expiration_date,omitempty"`
	PackageName          string           `json:"package_name"`
	PackageDescription   string           `json:"package_description,omitempty"`
	PackagePrice         *decimal.Decimal `json:"package_price,omitempty"`
	PackageFiscalRelated bool             `json:"package_fiscal_related"`
	Note                 string           `json:"note,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// PackageResponse represents a package in API responses
type PackageResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	FiscalRelated bool            `json:"fiscal_related"`
}

// CallbackResponse reports what a payment callback did
type CallbackResponse struct {
	RecordID         uuid.UUID       `json:"record_id"`
	Status           string          `json:"status"`
	Applied          bool            `json:"applied"`
	AlreadyProcessed bool            `json:"already_processed"`
	Record           *RecordResponse `json:"record,omitempty"`
}

// ToRecordResponse converts a domain record to a response DTO
func ToRecordResponse(r *subscription.Record) RecordResponse {
	return RecordResponse{
		ID:                   r.ID,
		UserID:               r.UserID,
		PackageID:            r.PackageID,
		Status:               string(r.Status),
		DurationMonths:       r.DurationMonths,
		Amount:               r.Amount,
		Discount:             r.Discount,
		ExpirationDate:       r.ExpirationDate,
		PackageName:          r.PackageName,
		PackageDescription:   r.PackageDescription,
		PackagePrice:         r.PackagePrice,
		PackageFiscalRelated: r.PackageFiscalRelated,
		Note:                 r.Note,
		CreatedAt:            r.CreatedAt,
	}
}

// ToPackageResponse converts a domain package to a response DTO
func ToPackageResponse(p *subscription.Package) PackageResponse {
	return PackageResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		FiscalRelated: p.FiscalRelated,
	}
}

func toEntitlementResponse(d subscription.Decision, cfg subscription.Config) EntitlementResponse {
	return EntitlementResponse{
		Allowed: d.Allowed,
		Reason:  string(d.Reason),
		Message: d.Reason.Message(cfg),
	}
}
