package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentSealed      = "DocumentSealed"
	EventTypeInvoiceCodeChanged  = "InvoiceCodeChanged"
	EventTypeDocumentTypeChanged = "DocumentTypeChanged"
	EventTypeSubmissionRecorded  = "SubmissionRecorded"
)

// DocumentSealedEvent is raised when a document's totals are computed
type DocumentSealedEvent struct {
	shared.BaseDomainEvent
	DocumentID    uuid.UUID       `json:"document_id"`
	UID           string          `json:"uid"`
	DocumentType  DocumentType    `json:"document_type"`
	TotalAfterVAT decimal.Decimal `json:"total_after_vat"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
}

// NewDocumentSealedEvent creates a new DocumentSealedEvent
func NewDocumentSealedEvent(d *Document) *DocumentSealedEvent {
	return &DocumentSealedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSealed, AggregateTypeDocument, d.ID, d.AccountID, *d.SealedAt),
		DocumentID:      d.ID,
		UID:             d.UID,
		DocumentType:    d.DocumentType,
		TotalAfterVAT:   d.TotalAfterVAT,
		VATAmount:       d.VATAmount,
	}
}

// InvoiceCodeChangedEvent is raised when an invoice becomes a credit note
type InvoiceCodeChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID  uuid.UUID `json:"document_id"`
	PreviousUID string    `json:"previous_uid"`
	UID         string    `json:"uid"`
	HistoryID   uuid.UUID `json:"history_id"`
}

// NewInvoiceCodeChangedEvent creates a new InvoiceCodeChangedEvent
func NewInvoiceCodeChangedEvent(d *Document, h HistoryRecord) *InvoiceCodeChangedEvent {
	return &InvoiceCodeChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCodeChanged, AggregateTypeDocument, d.ID, d.AccountID, h.CreatedAt),
		DocumentID:      d.ID,
		PreviousUID:     h.UID,
		UID:             d.UID,
		HistoryID:       h.ID,
	}
}

// DocumentTypeChangedEvent is raised when an offer becomes an invoice
type DocumentTypeChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID  uuid.UUID `json:"document_id"`
	PreviousUID string    `json:"previous_uid"`
	UID         string    `json:"uid"`
	HistoryID   uuid.UUID `json:"history_id"`
}

// NewDocumentTypeChangedEvent creates a new DocumentTypeChangedEvent
func NewDocumentTypeChangedEvent(d *Document, h HistoryRecord) *DocumentTypeChangedEvent {
	return &DocumentTypeChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentTypeChanged, AggregateTypeDocument, d.ID, d.AccountID, h.CreatedAt),
		DocumentID:      d.ID,
		PreviousUID:     h.UID,
		UID:             d.UID,
		HistoryID:       h.ID,
	}
}

// SubmissionRecordedEvent is raised when a tax-authority outcome is stored
type SubmissionRecordedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID `json:"document_id"`
	UID            string    `json:"uid"`
	PreviousStatus Status    `json:"previous_status"`
	Status         Status    `json:"status"`
}

// NewSubmissionRecordedEvent creates a new SubmissionRecordedEvent
func NewSubmissionRecordedEvent(d *Document, prev Status) *SubmissionRecordedEvent {
	return &SubmissionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubmissionRecorded, AggregateTypeDocument, d.ID, d.AccountID, d.UpdatedAt),
		DocumentID:      d.ID,
		UID:             d.UID,
		PreviousStatus:  prev,
		Status:          d.Status,
	}
}
