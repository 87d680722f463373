package invoicing

import (
	"fmt"
	"time"

	"github.com/fatoora/backend/internal/domain/shared"
)

// TransitionInvoiceCode turns an invoice into a credit note. The returned
// history record holds the pre-transition state and must be persisted in
// the same transaction as the document. The transition is one-way.
func (d *Document) TransitionInvoiceCode(requiresConfirmation bool, now time.Time) (HistoryRecord, error) {
	if !d.IsSealed() {
		return HistoryRecord{}, shared.NewInvariantViolation("DOCUMENT_NOT_SEALED", "only sealed documents can change code")
	}
	if d.DocumentType != DocumentTypeInvoice {
		return HistoryRecord{}, shared.NewValidationError("NOT_AN_INVOICE", "document_type",
			"only invoice documents can be turned into credit notes")
	}
	switch d.InvoiceCode {
	case InvoiceCodeInvoice:
	case InvoiceCodeCredit:
		return HistoryRecord{}, shared.NewValidationError("ALREADY_CREDIT", "invoice_code", "this invoice is already credit")
	default:
		return HistoryRecord{}, shared.NewValidationError("INVALID_INVOICE_CODE", "invoice_code",
			fmt.Sprintf("a %s document cannot be turned into a credit note", d.InvoiceCode))
	}
	if requiresConfirmation && !d.Status.IsAccepted() {
		return HistoryRecord{}, shared.NewValidationError("INVOICE_NOT_PASSED", "status",
			"this invoice is not passed, share it with the tax authority before changing it to credit")
	}

	newUID, err := RewriteUIDPrefix(d.UID, PrefixInvoice, PrefixCredit)
	if err != nil {
		return HistoryRecord{}, err
	}

	h := d.snapshot(ActionChangeInvoiceCode, now)

	d.InvoiceCode = InvoiceCodeCredit
	d.ReferencePK = d.UID
	d.UID = newUID
	d.IssuedAt = now
	d.Status = StatusStandby
	d.Note = ""
	d.InvoiceNumber = nil
	d.InvoicePK = ""
	d.Touch(now)

	d.AddDomainEvent(NewInvoiceCodeChangedEvent(d, h))
	return h, nil
}

// TransitionDocumentType converts an unexpired offer into an invoice. The
// offer is still valid on its valid_until day.
func (d *Document) TransitionDocumentType(now time.Time, loc *time.Location) (HistoryRecord, error) {
	if !d.IsSealed() {
		return HistoryRecord{}, shared.NewInvariantViolation("DOCUMENT_NOT_SEALED", "only sealed documents can change type")
	}
	if d.DocumentType != DocumentTypeOffer {
		return HistoryRecord{}, shared.NewValidationError("NOT_AN_OFFER", "document_type",
			"only offer documents can be converted to invoices")
	}
	if d.ValidUntil == nil {
		return HistoryRecord{}, shared.NewValidationError("VALID_UNTIL_REQUIRED", "valid_until",
			"valid until date is required for offer documents")
	}
	today := shared.StartOfDay(now.In(loc))
	if shared.StartOfDay(d.ValidUntil.In(loc)).Before(today) {
		return HistoryRecord{}, shared.NewValidationError("OFFER_EXPIRED", "valid_until", "the offer document has expired")
	}

	newUID, err := RewriteUIDPrefix(d.UID, PrefixOffer, PrefixInvoice)
	if err != nil {
		return HistoryRecord{}, err
	}

	h := d.snapshot(ActionChangeDocumentType, now)

	d.DocumentType = DocumentTypeInvoice
	d.UID = newUID
	d.IssuedAt = now
	d.Touch(now)

	d.AddDomainEvent(NewDocumentTypeChangedEvent(d, h))
	return h, nil
}

// SubmissionResult is the tax authority's answer to a submitted document
type SubmissionResult struct {
	Status        Status
	Note          string
	InvoiceNumber *int64
	InvoicePK     string
}

// RecordSubmission applies a submission outcome. A rejected or error
// outcome also yields a reject_invoice history record of the state before
// the outcome; otherwise the returned record is nil.
func (d *Document) RecordSubmission(result SubmissionResult, now time.Time) (*HistoryRecord, error) {
	if !d.IsSealed() {
		return nil, shared.NewInvariantViolation("DOCUMENT_NOT_SEALED", "only sealed documents can be submitted")
	}
	if d.DocumentType != DocumentTypeInvoice {
		return nil, shared.NewValidationError("NOT_AN_INVOICE", "document_type", "offers are not submitted to the tax authority")
	}
	if !result.Status.IsSubmissionResult() {
		return nil, shared.NewValidationError("INVALID_STATUS", "status",
			fmt.Sprintf("%q is not a submission outcome", result.Status))
	}
	if !d.Status.CanTransitionTo(result.Status) {
		return nil, shared.NewValidationError("INVALID_STATUS_TRANSITION", "status",
			fmt.Sprintf("cannot move a %s document to %s", d.Status, result.Status))
	}

	var h *HistoryRecord
	if result.Status == StatusRejected || result.Status == StatusError {
		snap := d.snapshot(ActionRejectInvoice, now)
		h = &snap
	}

	prev := d.Status
	d.Status = result.Status
	d.Note = result.Note
	d.SharedAt = &now
	if result.InvoiceNumber != nil {
		n := *result.InvoiceNumber
		d.InvoiceNumber = &n
	}
	if result.InvoicePK != "" {
		d.InvoicePK = result.InvoicePK
	}
	d.Touch(now)

	d.AddDomainEvent(NewSubmissionRecordedEvent(d, prev))
	return h, nil
}
