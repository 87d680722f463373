package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
)

// DiscountKind tags how a Discount value is interpreted
type DiscountKind string

const (
	DiscountKindAmount     DiscountKind = "amount"
	DiscountKindPercentage DiscountKind = "percentage"
)

// IsValid checks if the kind is known
func (k DiscountKind) IsValid() bool {
	return k == DiscountKindAmount || k == DiscountKindPercentage
}

var hundred = decimal.NewFromInt(100)

// Discount is either an absolute amount or a percentage of the subtotal.
// The percentage form is resolved to an absolute amount once, by Resolve,
// and the variant itself is never rewritten.
type Discount struct {
	kind  DiscountKind
	value decimal.Decimal
}

// NoDiscount returns a zero amount discount
func NoDiscount() Discount {
	return Discount{kind: DiscountKindAmount, value: decimal.Zero}
}

// AmountDiscount creates an absolute discount
func AmountDiscount(amount decimal.Decimal) (Discount, error) {
	d := Discount{kind: DiscountKindAmount, value: amount}
	if err := d.Validate(); err != nil {
		return Discount{}, err
	}
	return d, nil
}

// PercentageDiscount creates a percentage discount in [0, 100]
func PercentageDiscount(pct decimal.Decimal) (Discount, error) {
	d := Discount{kind: DiscountKindPercentage, value: pct}
	if err := d.Validate(); err != nil {
		return Discount{}, err
	}
	return d, nil
}

// ParseDiscount builds a Discount from its stored kind and value.
// An empty kind means amount.
func ParseDiscount(kind string, value decimal.Decimal) (Discount, error) {
	switch DiscountKind(kind) {
	case "", DiscountKindAmount:
		return AmountDiscount(value)
	case DiscountKindPercentage:
		return PercentageDiscount(value)
	}
	return Discount{}, shared.NewValidationError("INVALID_DISCOUNT_TYPE", "discount_type",
		fmt.Sprintf("unknown discount type %q", kind))
}

// Kind returns the variant tag
func (d Discount) Kind() DiscountKind {
	if d.kind == "" {
		return DiscountKindAmount
	}
	return d.kind
}

// Value returns the raw value: an amount or a percentage depending on Kind
func (d Discount) Value() decimal.Decimal {
	return d.value
}

// IsZero reports whether the discount removes nothing
func (d Discount) IsZero() bool {
	return d.value.IsZero()
}

// Validate checks the value bounds of the variant. Percentages are checked
// against 100 every time, not only when the discount is first created.
func (d Discount) Validate() error {
	if d.value.IsNegative() {
		return shared.NewValidationError("NEGATIVE_DISCOUNT", "discount_amount", "discount cannot be negative")
	}
	if d.Kind() == DiscountKindPercentage && d.value.GreaterThan(hundred) {
		return shared.NewValidationError("DISCOUNT_PERCENTAGE_TOO_HIGH", "discount_amount",
			"discount percentage cannot be greater than 100%")
	}
	if d.Kind() == DiscountKindAmount && !HasCurrencyScale(d.value) {
		return shared.NewValidationError("INVALID_AMOUNT_SCALE", "discount_amount",
			fmt.Sprintf("discount amount cannot have more than %d decimal places", CurrencyScale))
	}
	if err := EnsureStorable("discount_amount", d.value); err != nil {
		return shared.NewValidationError("AMOUNT_OVERFLOW", "discount_amount", err.Error())
	}
	return nil
}

// Resolve returns the absolute discount for a subtotal at currency scale.
// The result never exceeds the subtotal.
func (d Discount) Resolve(subTotal decimal.Decimal) (decimal.Decimal, error) {
	if err := d.Validate(); err != nil {
		return decimal.Zero, err
	}
	amount := d.value
	if d.Kind() == DiscountKindPercentage {
		amount = RoundCurrency(subTotal.Mul(d.value).Div(hundred))
	}
	if amount.GreaterThan(subTotal) {
		return decimal.Zero, shared.NewValidationError("DISCOUNT_EXCEEDS_SUBTOTAL", "discount_amount",
			fmt.Sprintf("discount %s cannot be greater than subtotal %s",
				amount.StringFixed(CurrencyScale), subTotal.StringFixed(CurrencyScale)))
	}
	return amount, nil
}
