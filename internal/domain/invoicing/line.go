package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// Line is a document item. Name, unit price and VAT rate are copied from the
// catalog when the line is first computed and never re-read afterward.
type Line struct {
	ID        uuid.UUID
	ProductID *uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	VATRate   valueobject.VATRate
	Quantity  int64
	// Discount is this line's share of the document discount
	Discount  decimal.Decimal
	SubTotal  decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// ComputeLine prices quantity units of a catalog entry at the account rate
func ComputeLine(entry account.CatalogEntry, quantity int64, rate valueobject.VATRate) (Line, error) {
	productID := entry.ID
	l := Line{ID: uuid.New(), ProductID: &productID, Quantity: quantity}
	if err := l.Freeze(entry, rate); err != nil {
		return Line{}, err
	}
	return l, nil
}

// IsFrozen reports whether name and price were already captured
func (l *Line) IsFrozen() bool {
	return l.Name != "" && !l.UnitPrice.IsZero()
}

// Freeze captures the catalog entry and computes the line amounts. A line
// that is already frozen is left untouched, so saving it again is a no-op.
func (l *Line) Freeze(entry account.CatalogEntry, rate valueobject.VATRate) error {
	if l.IsFrozen() {
		return nil
	}
	if l.Quantity < 1 {
		return shared.NewValidationError("INVALID_QUANTITY", "quantity", "quantity must be a positive integer")
	}
	if !entry.Price.IsPositive() {
		return shared.NewValidationError("INVALID_PRICE", "price", "catalog price must be greater than zero")
	}

	subTotal := valueobject.RoundCurrency(entry.Price.Mul(decimal.NewFromInt(l.Quantity)))
	if err := valueobject.EnsureStorable("line.sub_total", subTotal); err != nil {
		return shared.NewValidationError("AMOUNT_OVERFLOW", "line.sub_total", err.Error())
	}
	vatAmount := rate.Apply(subTotal)

	l.Name = entry.Name
	l.UnitPrice = entry.Price
	l.VATRate = rate
	l.SubTotal = subTotal
	l.VATAmount = vatAmount
	l.Total = subTotal.Add(vatAmount)
	return nil
}
