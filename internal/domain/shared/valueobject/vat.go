package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
)

// VATScale is the number of fractional digits kept for VAT percentages
const VATScale int32 = 1

var (
	// VATExempt is the rate of a tax-exempt account
	VATExempt = VATRate{pct: decimal.Zero}
	// VATStandard is the rate of a taxable account
	VATStandard = VATRate{pct: decimal.NewFromInt(15)}
)

// VATRate is a VAT percentage restricted to the allowed set {0.0, 15.0}
type VATRate struct {
	pct decimal.Decimal
}

// NewVATRate validates a percentage against the allowed rates
func NewVATRate(pct decimal.Decimal) (VATRate, error) {
	switch {
	case pct.Equal(VATExempt.pct):
		return VATExempt, nil
	case pct.Equal(VATStandard.pct):
		return VATStandard, nil
	}
	return VATRate{}, shared.NewValidationError("INVALID_VAT_RATE", "vat",
		fmt.Sprintf("VAT must be either 0.0 or 15.0, got %s", pct.StringFixed(VATScale)))
}

// Percent returns the rate as a percentage
func (r VATRate) Percent() decimal.Decimal {
	return r.pct
}

// IsExempt reports whether the rate is zero
func (r VATRate) IsExempt() bool {
	return r.pct.IsZero()
}

// Apply returns round(base * rate / 100) at currency scale
func (r VATRate) Apply(base decimal.Decimal) decimal.Decimal {
	return RoundCurrency(base.Mul(r.pct).Div(decimal.NewFromInt(100)))
}

// String returns the percentage with one fractional digit
func (r VATRate) String() string {
	return r.pct.StringFixed(VATScale)
}

// Value implements driver.Valuer
func (r VATRate) Value() (driver.Value, error) {
	return r.pct.StringFixed(VATScale), nil
}

// Scan implements sql.Scanner, rejecting stored rates outside the allowed set
func (r *VATRate) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan vat rate: %w", err)
	}
	rate, err := NewVATRate(d)
	if err != nil {
		return err
	}
	*r = rate
	return nil
}

// VATPolicy maps an account's taxable flag to its rate. It is passed
// explicitly to whatever needs to derive an account's rate.
type VATPolicy struct {
	Taxable VATRate
	Exempt  VATRate
}

// DefaultVATPolicy returns 15.0 for taxable accounts and 0.0 otherwise
func DefaultVATPolicy() VATPolicy {
	return VATPolicy{Taxable: VATStandard, Exempt: VATExempt}
}

// RateFor returns the rate for an account's taxable flag
func (p VATPolicy) RateFor(taxable bool) VATRate {
	if taxable {
		return p.Taxable
	}
	return p.Exempt
}
