package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeRecord = "SubscriptionRecord"

// Event type constants
const (
	EventTypePaymentCreated = "SubscriptionPaymentCreated"
	EventTypePaymentApplied = "SubscriptionPaymentApplied"
)

// PaymentCreatedEvent is raised when a pending record is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	RecordID       uuid.UUID       `json:"record_id"`
	PackageName    string          `json:"package_name"`
	DurationMonths int             `json:"duration_months"`
	Amount         decimal.Decimal `json:"amount"`
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent. The user ID is
// carried as the account reference.
func NewPaymentCreatedEvent(r *Record) *PaymentCreatedEvent {
	e := &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypeRecord, r.ID, r.UserID, r.CreatedAt),
		RecordID:        r.ID,
		PackageName:     r.PackageName,
		DurationMonths:  r.DurationMonths,
	}
	if r.Amount != nil {
		e.Amount = *r.Amount
	}
	return e
}

// PaymentAppliedEvent is raised when a completed record gets its expiration
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	RecordID       uuid.UUID `json:"record_id"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(r *Record) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApplied, AggregateTypeRecord, r.ID, r.UserID, r.UpdatedAt),
		RecordID:        r.ID,
		ExpirationDate:  *r.ExpirationDate,
	}
}
