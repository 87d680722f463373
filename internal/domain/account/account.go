// Package account holds the business account that issues documents, its
// fiscal settings, catalog and customers.
package account

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// Account is the issuing business. One account per user.
type Account struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	JoinedAt       time.Time
	Organization   string
	RegisterNumber string
	TaxNumber      string
	Country        string
	City           string
	Street         string
	Phone          string
	Taxable        bool
	VATRate        valueobject.VATRate

	// RequiresFiscalConfirmation is set once the account is onboarded with
	// the tax authority; credit conversions then need a passed submission.
	RequiresFiscalConfirmation bool
	// FiscalConfigUpdatedAt is the last change of the tax-authority
	// credentials. Submissions older than this cannot be shared.
	FiscalConfigUpdatedAt *time.Time
}

// NewAccount creates a taxable account for a user who joined at joinedAt
func NewAccount(userID uuid.UUID, joinedAt time.Time, policy valueobject.VATPolicy) *Account {
	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(joinedAt),
		UserID:            userID,
		JoinedAt:          joinedAt,
		Country:           "SA",
		Taxable:           true,
		VATRate:           policy.RateFor(true),
	}
}

// ProfileUpdate carries editable account settings
type ProfileUpdate struct {
	Organization   string
	RegisterNumber string
	TaxNumber      string
	City           string
	Street         string
	Phone          string
	Taxable        bool
}

// UpdateProfile validates and applies profile settings. The VAT rate always
// follows the taxable flag.
func (a *Account) UpdateProfile(u ProfileUpdate, policy valueobject.VATPolicy, now time.Time) error {
	if u.TaxNumber != "" {
		if err := ValidateTaxNumber("tax_number", u.TaxNumber); err != nil {
			return err
		}
	}
	a.Organization = strings.TrimSpace(u.Organization)
	a.RegisterNumber = u.RegisterNumber
	a.TaxNumber = u.TaxNumber
	a.City = u.City
	a.Street = u.Street
	a.Phone = u.Phone
	a.Taxable = u.Taxable
	a.VATRate = policy.RateFor(u.Taxable)
	a.Touch(now)
	return nil
}

// ConfigureFiscal records a tax-authority onboarding or credential change
func (a *Account) ConfigureFiscal(now time.Time) {
	a.RequiresFiscalConfirmation = true
	a.FiscalConfigUpdatedAt = &now
	a.Touch(now)
}

// ProfileComplete reports whether every field needed to issue documents is set
func (a *Account) ProfileComplete() bool {
	for _, v := range []string{a.Organization, a.RegisterNumber, a.TaxNumber, a.City, a.Street, a.Phone} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FiscalProfile returns the seller data documents are sealed with
func (a *Account) FiscalProfile(loc *time.Location) FiscalProfile {
	return FiscalProfile{
		AccountID:                  a.ID,
		SellerName:                 a.Organization,
		TaxNumber:                  a.TaxNumber,
		VATRate:                    a.VATRate,
		RequiresFiscalConfirmation: a.RequiresFiscalConfirmation,
		FiscalConfigUpdatedAt:      a.FiscalConfigUpdatedAt,
		Location:                   loc,
	}
}

// FiscalProfile is the read-only view of the seller used by the document engine
type FiscalProfile struct {
	AccountID                  uuid.UUID
	SellerName                 string
	TaxNumber                  string
	VATRate                    valueobject.VATRate
	RequiresFiscalConfirmation bool
	FiscalConfigUpdatedAt      *time.Time
	// Location is the fiscal time zone used for dates and QR timestamps
	Location *time.Location
}

// Loc returns the fiscal location, UTC when unset
func (p FiscalProfile) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// ValidateTaxNumber checks a 15 digit VAT number that starts and ends with 3
func ValidateTaxNumber(field, v string) error {
	if err := validateDigits(field, v, 15); err != nil {
		return err
	}
	if !strings.HasPrefix(v, "3") || !strings.HasSuffix(v, "3") {
		return shared.NewValidationError("INVALID_TAX_NUMBER", field, "tax number must start and end with 3")
	}
	return nil
}

func validateDigits(field, v string, length int) error {
	if len(v) != length {
		return shared.NewValidationError("INVALID_NUMBER", field, "must be exactly "+strconv.Itoa(length)+" digits")
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return shared.NewValidationError("INVALID_NUMBER", field, "must contain only numeric characters")
		}
	}
	return nil
}
