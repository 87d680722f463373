package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// ==================== Request DTOs ====================

// CreateDocumentRequest represents a request to compute and store a new document
type CreateDocumentRequest struct {
	DocumentType   string           `json:"document_type" binding:"omitempty,oneof=invoice offer"`
	InvoiceType    string           `json:"invoice_type" binding:"omitempty,oneof=simplified standard"`
	PaymentMethod  string           `json:"payment_method" binding:"required,oneof=10 30 42 48"`
	DeliveryDate   *time.Time       `json:"delivery_date"`
	CustomerID     *uuid.UUID       `json:"customer_id"`
	DiscountType   string           `json:"discount_type" binding:"omitempty,oneof=amount percentage"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	ValidUntil     *time.Time       `json:"valid_until"`
	Items          []LineItemInput  `json:"items" binding:"required,min=1,dive"`
}

// LineItemInput is one requested line: a catalog product and its quantity
type LineItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// SubmissionResultRequest carries the tax authority's answer for a document
type SubmissionResultRequest struct {
	Status        string `json:"status" binding:"required,oneof=passed passed_with_warnings rejected error"`
	Note          string `json:"note" binding:"max=2000"`
	InvoiceNumber *int64 `json:"invoice_number"`
	InvoicePK     string `json:"invoice_pk" binding:"max=100"`
}

// DocumentListFilter represents filter options for listing documents
type DocumentListFilter struct {
	DocumentType string     `form:"document_type" binding:"omitempty,oneof=invoice offer"`
	InvoiceCode  string     `form:"invoice_code" binding:"omitempty,oneof=invoice credit debit"`
	Status       string     `form:"status" binding:"omitempty,oneof=standby passed passed_with_warnings rejected error"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Search       string     `form:"search" binding:"max=50"`
	Page         int        `form:"page" binding:"min=0"`
	PageSize     int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Response DTOs ====================

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	AccountID          uuid.UUID                 `json:"account_id"`
	UID                string                    `json:"uid"`
	DocumentType       string                    `json:"document_type"`
	InvoiceType        string                    `json:"invoice_type"`
	InvoiceCode        string                    `json:"invoice_code"`
	PaymentMethod      string                    `json:"payment_method"`
	DeliveryDate       time.Time                 `json:"delivery_date"`
	CustomerID         *uuid.UUID                `json:"customer_id,omitempty"`
	Customer           *account.CustomerSnapshot `json:"customer,omitempty"`
	Items              []LineResponse            `json:"items"`
	DiscountType       string                    `json:"discount_type"`
	DiscountValue      decimal.Decimal           `json:"discount_value"`
	DiscountAmount     decimal.Decimal           `json:"discount_amount"`
	VAT                string                    `json:"vat"`
	SubTotal           decimal.Decimal           `json:"sub_total"`
	TotalAfterDiscount decimal.Decimal           `json:"total_after_discount"`
	VATAmount          decimal.Decimal           `json:"vat_amount"`
	TotalAfterVAT      decimal.Decimal           `json:"total_after_vat"`
	QRCode             string                    `json:"qr_code"`
	Status             string                    `json:"status"`
	IssuedAt           time.Time                 `json:"created_date"`
	SharedAt           *time.Time                `json:"shared_date,omitempty"`
	Note               string                    `json:"note,omitempty"`
	ReferencePK        string                    `json:"reference_pk,omitempty"`
	InvoiceNumber      *int64                    `json:"invoice_number,omitempty"`
	InvoicePK          string                    `json:"invoice_pk,omitempty"`
	ValidUntil         *time.Time                `json:"valid_until,omitempty"`
	Version            int                       `json:"version"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VAT       string          `json:"vat"`
	Quantity  int64           `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
	SubTotal  decimal.Decimal `json:"sub_total"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Total     decimal.Decimal `json:"total"`
}

// HistoryResponse represents a lifecycle snapshot in API responses
type HistoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	ActionType  string     `json:"action_type"`
	UID         string     `json:"uid"`
	InvoiceCode string     `json:"invoice_code"`
	QRCode      string     `json:"qr_code"`
	Status      string     `json:"status"`
	CreatedDate time.Time  `json:"created_date"`
	SharedDate  *time.Time `json:"shared_date,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TransitionResponse is the document after a transition and the snapshot of
// its state before it
type TransitionResponse struct {
	Document DocumentResponse `json:"document"`
	History  HistoryResponse  `json:"history"`
}

// SubmissionResponse is the document after a submission outcome was recorded
type SubmissionResponse struct {
	Document DocumentResponse `json:"document"`
	History  *HistoryResponse `json:"history,omitempty"`
}

// StatsResponse holds invoice and credit note totals for the current fiscal
// day and the trailing 30 days
type StatsResponse struct {
	Date                string          `json:"date"`
	DailyInvoiceTotal   decimal.Decimal `json:"daily_invoice_total"`
	DailyCreditTotal    decimal.Decimal `json:"daily_credit_total"`
	MonthlyInvoiceTotal decimal.Decimal `json:"monthly_invoice_total"`
	MonthlyCreditTotal  decimal.Decimal `json:"monthly_credit_total"`
	DocumentsToday      int64           `json:"documents_today"`
}

// ==================== Mappers ====================

// ToDocumentResponse converts a domain document to a response DTO
func ToDocumentResponse(d *invoicing.Document) DocumentResponse {
	items := make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		items[i] = LineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			VAT:       l.VATRate.String(),
			Quantity:  l.Quantity,
			Discount:  l.Discount,
			SubTotal:  l.SubTotal,
			VATAmount: l.VATAmount,
			Total:     l.Total,
		}
	}
	return DocumentResponse{
		ID:                 d.ID,
		AccountID:          d.AccountID,
		UID:                d.UID,
		DocumentType:       string(d.DocumentType),
		InvoiceType:        string(d.InvoiceType),
		InvoiceCode:        string(d.InvoiceCode),
		PaymentMethod:      string(d.PaymentMethod),
		DeliveryDate:       d.DeliveryDate,
		CustomerID:         d.CustomerID,
		Customer:           d.Customer,
		Items:              items,
		DiscountType:       string(d.Discount.Kind()),
		DiscountValue:      d.Discount.Value(),
		DiscountAmount:     d.DiscountAmount,
		VAT:                d.VATRate.String(),
		SubTotal:           d.SubTotal,
		TotalAfterDiscount: d.TotalAfterDiscount,
		VATAmount:          d.VATAmount,
		TotalAfterVAT:      d.TotalAfterVAT,
		QRCode:             d.QRCode,
		Status:             string(d.Status),
		IssuedAt:           d.IssuedAt,
		SharedAt:           d.SharedAt,
		Note:               d.Note,
		ReferencePK:        d.ReferencePK,
		InvoiceNumber:      d.InvoiceNumber,
		InvoicePK:          d.InvoicePK,
		ValidUntil:         d.ValidUntil,
		Version:            d.Version,
	}
}

// ToHistoryResponse converts a history record to a response DTO
func ToHistoryResponse(h invoicing.HistoryRecord) HistoryResponse {
	return HistoryResponse{
		ID:          h.ID,
		ActionType:  string(h.ActionType),
		UID:         h.UID,
		InvoiceCode: string(h.InvoiceCode),
		QRCode:      h.QRCode,
		Status:      string(h.Status),
		CreatedDate: h.CreatedDate,
		SharedDate:  h.SharedDate,
		Note:        h.Note,
		CreatedAt:   h.CreatedAt,
	}
}

// discountFrom builds the discount variant of a request. A missing amount
// means no discount.
func discountFrom(kind string, amount *decimal.Decimal) (valueobject.Discount, error) {
	if amount == nil {
		return valueobject.NoDiscount(), nil
	}
	return valueobject.ParseDiscount(kind, *amount)
}
