package invoicing

import (
	"time"

	"github.com/google/uuid"
)

// ActionType names the lifecycle transition a history record documents
type ActionType string

const (
	ActionChangeInvoiceCode  ActionType = "change_invoice_code"
	ActionChangeDocumentType ActionType = "change_document_type"
	ActionRejectInvoice      ActionType = "reject_invoice"
)

// IsValid checks if the action type is known
func (a ActionType) IsValid() bool {
	switch a {
	case ActionChangeInvoiceCode, ActionChangeDocumentType, ActionRejectInvoice:
		return true
	}
	return false
}

// HistoryRecord is an append-only snapshot of a document taken right before
// a lifecycle transition. Records are never updated or deleted.
type HistoryRecord struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	DocumentID  uuid.UUID
	ActionType  ActionType
	UID         string
	InvoiceCode InvoiceCode
	QRCode      string
	Status      Status
	CreatedDate time.Time
	SharedDate  *time.Time
	Note        string
	CreatedAt   time.Time
}

func (d *Document) snapshot(action ActionType, now time.Time) HistoryRecord {
	var sharedAt *time.Time
	if d.SharedAt != nil {
		t := *d.SharedAt
		sharedAt = &t
	}
	return HistoryRecord{
		ID:          uuid.New(),
		AccountID:   d.AccountID,
		DocumentID:  d.ID,
		ActionType:  action,
		UID:         d.UID,
		InvoiceCode: d.InvoiceCode,
		QRCode:      d.QRCode,
		Status:      d.Status,
		CreatedDate: d.IssuedAt,
		SharedDate:  sharedAt,
		Note:        d.Note,
		CreatedAt:   now,
	}
}

// CanShareCreditNote decides whether a credit note may be sent to the tax
// authority. The latest accepted change_invoice_code snapshot must have been
// shared after the account's fiscal configuration last changed.
func CanShareCreditNote(doc *Document, history []HistoryRecord, fiscalConfigUpdatedAt *time.Time) bool {
	if doc == nil || doc.InvoiceCode != InvoiceCodeCredit {
		return false
	}

	var latest *HistoryRecord
	for i := range history {
		h := &history[i]
		if h.DocumentID != doc.ID || h.ActionType != ActionChangeInvoiceCode || !h.Status.IsAccepted() {
			continue
		}
		if latest == nil || h.CreatedAt.After(latest.CreatedAt) {
			latest = h
		}
	}
	if latest == nil {
		return false
	}
	if fiscalConfigUpdatedAt == nil {
		return true
	}
	if latest.SharedDate == nil {
		return false
	}
	return latest.SharedDate.After(*fiscalConfigUpdatedAt)
}
