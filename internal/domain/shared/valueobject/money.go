package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// SAR is the only currency documents are issued in
const SAR Currency = "SAR"

// DefaultCurrency is the default currency for the system
const DefaultCurrency = SAR

const (
	// CurrencyScale is the number of fractional digits kept for amounts
	CurrencyScale int32 = 2
	// MaxIntegerDigits bounds amounts to what a numeric(18,2) column stores
	MaxIntegerDigits = 16
)

var maxStorable = decimal.New(1, MaxIntegerDigits)

// RoundCurrency rounds to CurrencyScale, half away from zero. Every stored
// amount passes through here so results are reproducible for audit.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyScale)
}

// HasCurrencyScale reports whether d carries no more than CurrencyScale
// fractional digits
func HasCurrencyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(CurrencyScale))
}

// EnsureStorable rejects amounts that would overflow the storage column.
// The returned error names the field.
func EnsureStorable(field string, d decimal.Decimal) error {
	if d.Abs().GreaterThanOrEqual(maxStorable) {
		return &AmountOverflowError{Field: field, Value: d}
	}
	return nil
}

// AmountOverflowError reports an amount too large for storage
type AmountOverflowError struct {
	Field string
	Value decimal.Decimal
}

func (e *AmountOverflowError) Error() string {
	return fmt.Sprintf("%s: amount %s exceeds %d integer digits", e.Field, e.Value.String(), MaxIntegerDigits)
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneySAR creates Money in SAR
func NewMoneySAR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: SAR}
}

// NewMoneySARFromString creates Money in SAR from a decimal string
func NewMoneySARFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: SAR}, nil
}

// ZeroSAR returns a zero-value Money in SAR
func ZeroSAR() Money {
	return Money{amount: decimal.Zero, currency: SAR}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts.
// Returns error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.Currency(), other.Currency())
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.Currency()}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns the difference.
// Returns error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.Currency(), other.Currency())
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.Currency()}, nil
}

// MustSubtract subtracts two Money values, panics if currencies don't match
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply returns Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.Currency()}
}

// MultiplyByInt returns Money multiplied by an integer
func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// Round returns Money rounded to the currency scale
func (m Money) Round() Money {
	return Money{amount: RoundCurrency(m.amount), currency: m.Currency()}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.Currency() != other.Currency() {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.Currency(), other.Currency())
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(CurrencyScale), m.Currency())
}

// StringFixed returns the amount with the currency scale
func (m Money) StringFixed() string {
	return m.amount.StringFixed(CurrencyScale)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(CurrencyScale),
		Currency: m.Currency(),
	})
}

// Value implements driver.Valuer; only the amount is stored
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner. Currency defaults to SAR.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	case float64:
		strVal = decimal.NewFromFloat(v).String()
	case int64:
		strVal = decimal.NewFromInt(v).String()
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// Allocate divides money into n parts at currency scale. Remainder cents go
// to the first parts so the parts always sum to the original amount.
func (m Money) Allocate(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	if parts == 1 {
		return []Money{m}, nil
	}

	n := decimal.NewFromInt(int64(parts))
	base := m.amount.Div(n).Truncate(CurrencyScale)
	remainder := m.amount.Sub(base.Mul(n))

	cent := decimal.New(1, -CurrencyScale)
	remainderCents := remainder.Div(cent).IntPart()

	result := make([]Money, parts)
	for i := range parts {
		partAmount := base
		if int64(i) < remainderCents {
			partAmount = partAmount.Add(cent)
		}
		result[i] = Money{amount: partAmount, currency: m.Currency()}
	}
	return result, nil
}

// CalculatePercentage returns percent% of this Money, unrounded
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(percent).Div(decimal.NewFromInt(100)),
		currency: m.Currency(),
	}
}
