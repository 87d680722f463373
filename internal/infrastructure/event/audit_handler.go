package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/subscription"
	"github.com/fatoora/backend/internal/infrastructure/logger"
)

// AuditLogHandler writes one structured log line per fiscal or payment event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the events worth an audit line
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		invoicing.EventTypeDocumentSealed,
		invoicing.EventTypeInvoiceCodeChanged,
		invoicing.EventTypeDocumentTypeChanged,
		invoicing.EventTypeSubmissionRecorded,
		subscription.EventTypePaymentCreated,
		subscription.EventTypePaymentApplied,
	}
}

// Handle logs the event with its type specific fields
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("account_id", event.AccountID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *invoicing.DocumentSealedEvent:
		fields = append(fields, zap.String("uid", e.UID), zap.String("total_after_vat", e.TotalAfterVAT.StringFixed(2)))
	case *invoicing.InvoiceCodeChangedEvent:
		fields = append(fields, zap.String("uid", e.UID), zap.String("previous_uid", e.PreviousUID))
	case *invoicing.DocumentTypeChangedEvent:
		fields = append(fields, zap.String("uid", e.UID), zap.String("previous_uid", e.PreviousUID))
	case *invoicing.SubmissionRecordedEvent:
		fields = append(fields, zap.String("uid", e.UID), zap.String("status", string(e.Status)))
	case *subscription.PaymentCreatedEvent:
		fields = append(fields, zap.String("package", e.PackageName), zap.String("amount", e.Amount.StringFixed(2)))
	case *subscription.PaymentAppliedEvent:
		fields = append(fields, zap.Time("expiration_date", e.ExpirationDate))
	}

	logger.FromContextOr(ctx, h.logger).Info("domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
