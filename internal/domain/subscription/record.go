package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// RecordStatus is the payment state of a subscription record
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusNotActive RecordStatus = "not_active"
)

// IsValid checks if the status is known
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusCompleted, RecordStatusNotActive:
		return true
	}
	return false
}

// Record is one subscription payment of a user. The package may be deleted
// later, so its name, description, price and flag are copied onto the record.
type Record struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	PackageID      *uuid.UUID
	Status         RecordStatus
	DurationMonths int
	Amount         *decimal.Decimal
	Discount       decimal.Decimal
	// ExpirationDate is computed once, when the record is first applied as
	// completed, and never recomputed.
	ExpirationDate *time.Time

	PackageName          string
	PackageDescription   string
	PackagePrice         *decimal.Decimal
	PackageFiscalRelated bool

	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord creates a pending record priced from the package
func NewRecord(userID uuid.UUID, pkg *Package, durationMonths int, discount decimal.Decimal, now time.Time) (*Record, error) {
	if pkg == nil {
		return nil, shared.NewValidationError("PACKAGE_REQUIRED", "package", "a package is required")
	}
	if durationMonths < 1 {
		return nil, shared.NewValidationError("INVALID_DURATION", "duration", "duration must be at least one month")
	}
	if discount.IsNegative() {
		return nil, shared.NewValidationError("NEGATIVE_DISCOUNT", "discount", "discount cannot be negative")
	}
	if !valueobject.HasCurrencyScale(discount) {
		return nil, shared.NewValidationError("INVALID_AMOUNT_SCALE", "discount",
			fmt.Sprintf("discount cannot have more than %d decimal places", valueobject.CurrencyScale))
	}
	pkgID := pkg.ID
	r := &Record{
		ID:             uuid.New(),
		UserID:         userID,
		PackageID:      &pkgID,
		Status:         RecordStatusPending,
		DurationMonths: durationMonths,
		Discount:       discount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.priceFrom(pkg); err != nil {
		return nil, err
	}
	return r, nil
}

// priceFrom sets amount = price * months - discount and snapshots the
// package. It does nothing when the amount is already set.
func (r *Record) priceFrom(pkg *Package) error {
	if r.Amount != nil {
		return nil
	}
	if pkg == nil {
		return shared.NewValidationError("PACKAGE_REQUIRED", "package", "cannot price a record without its package")
	}
	amount := valueobject.RoundCurrency(pkg.Price.Mul(decimal.NewFromInt(int64(r.DurationMonths))).Sub(r.Discount))
	if amount.IsNegative() {
		return shared.NewValidationError("DISCOUNT_EXCEEDS_AMOUNT", "discount",
			fmt.Sprintf("discount %s exceeds the package total", r.Discount.String()))
	}
	if err := valueobject.EnsureStorable("amount", amount); err != nil {
		return shared.NewValidationError("AMOUNT_OVERFLOW", "amount", err.Error())
	}
	price := pkg.Price
	r.Amount = &amount
	r.PackageName = pkg.Name
	r.PackageDescription = pkg.Description
	r.PackagePrice = &price
	r.PackageFiscalRelated = pkg.FiscalRelated
	return nil
}

// MarkCompleted records a successful payment. A completed record cannot be
// moved to another status afterward.
func (r *Record) MarkCompleted(now time.Time) error {
	if r.Status == RecordStatusCompleted {
		return nil
	}
	r.Status = RecordStatusCompleted
	r.UpdatedAt = now
	return nil
}

// Deactivate marks a pending record as not active
func (r *Record) Deactivate(note string, now time.Time) error {
	if r.Status == RecordStatusCompleted {
		return shared.NewInvariantViolation("RECORD_COMPLETED", "a completed subscription record cannot change status")
	}
	r.Status = RecordStatusNotActive
	r.Note = note
	r.UpdatedAt = now
	return nil
}

// IsApplied reports whether the expiration date has been computed
func (r *Record) IsApplied() bool {
	return r.ExpirationDate != nil
}
