package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Payment callback outcomes
const (
	CallbackApplied   = "applied"
	CallbackUpdated   = "updated"
	CallbackDuplicate = "duplicate"
	CallbackFailed    = "failed"
)

// BusinessMetrics counts document and subscription activity. A nil
// *BusinessMetrics records nothing, so services accept it as optional.
type BusinessMetrics struct {
	documentsComputed  *Counter
	transitions        *Counter
	entitlementDenials *Counter
	paymentCallbacks   *Counter
}

// NewBusinessMetrics registers the business instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	var err error

	if bm.documentsComputed, err = NewCounter(meter,
		"fatoora_documents_computed_total",
		"Total number of sealed documents",
		"{documents}"); err != nil {
		return nil, err
	}
	if bm.transitions, err = NewCounter(meter,
		"fatoora_document_transitions_total",
		"Total number of document lifecycle transitions",
		"{transitions}"); err != nil {
		return nil, err
	}
	if bm.entitlementDenials, err = NewCounter(meter,
		"fatoora_entitlement_denials_total",
		"Total number of writes refused for lack of entitlement",
		"{denials}"); err != nil {
		return nil, err
	}
	if bm.paymentCallbacks, err = NewCounter(meter,
		"fatoora_payment_callbacks_total",
		"Total number of payment gateway callbacks by outcome",
		"{callbacks}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordDocumentComputed counts a sealed document
func (bm *BusinessMetrics) RecordDocumentComputed(ctx context.Context, documentType, invoiceCode string) {
	if bm == nil {
		return
	}
	bm.documentsComputed.Inc(ctx, AttrDocumentType.String(documentType), AttrInvoiceCode.String(invoiceCode))
}

// RecordTransition counts a lifecycle transition such as credit_invoice
func (bm *BusinessMetrics) RecordTransition(ctx context.Context, transition string) {
	if bm == nil {
		return
	}
	bm.transitions.Inc(ctx, AttrTransition.String(transition))
}

// RecordEntitlementDenied counts a refused write by denial reason
func (bm *BusinessMetrics) RecordEntitlementDenied(ctx context.Context, reason string) {
	if bm == nil {
		return
	}
	bm.entitlementDenials.Inc(ctx, AttrReason.String(reason))
}

// RecordPaymentCallback counts a gateway callback by outcome
func (bm *BusinessMetrics) RecordPaymentCallback(ctx context.Context, outcome string) {
	if bm == nil {
		return
	}
	bm.paymentCallbacks.Inc(ctx, AttrOutcome.String(outcome))
}
