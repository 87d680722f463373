package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// Totals are the document-level amounts derived from lines and discount
type Totals struct {
	SubTotal           decimal.Decimal
	LinesTotal         decimal.Decimal
	DiscountAmount     decimal.Decimal
	TotalAfterDiscount decimal.Decimal
	VATAmount          decimal.Decimal
	TotalAfterVAT      decimal.Decimal
}

// ComputeTotals rolls lines up into document totals. The discount variant
// is resolved to an absolute amount here and nowhere else. VAT is charged
// on the discounted subtotal at the account rate.
func ComputeTotals(lines []Line, discount valueobject.Discount, rate valueobject.VATRate) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, shared.NewValidationError("NO_LINES", "items", "a document needs at least one line")
	}

	t := Totals{SubTotal: decimal.Zero, LinesTotal: decimal.Zero}
	for _, l := range lines {
		t.SubTotal = t.SubTotal.Add(l.SubTotal)
		t.LinesTotal = t.LinesTotal.Add(l.Total)
	}

	discountAmount, err := discount.Resolve(t.SubTotal)
	if err != nil {
		return Totals{}, err
	}
	t.DiscountAmount = discountAmount
	t.TotalAfterDiscount = t.SubTotal.Sub(discountAmount)
	t.VATAmount = rate.Apply(t.TotalAfterDiscount)
	t.TotalAfterVAT = t.TotalAfterDiscount.Add(t.VATAmount)

	if err := valueobject.EnsureStorable("sub_total", t.SubTotal); err != nil {
		return Totals{}, shared.NewValidationError("AMOUNT_OVERFLOW", "sub_total", err.Error())
	}
	if err := valueobject.EnsureStorable("total_after_vat", t.TotalAfterVAT); err != nil {
		return Totals{}, shared.NewValidationError("AMOUNT_OVERFLOW", "total_after_vat", err.Error())
	}
	return t, nil
}

// DistributeDiscount splits the resolved discount evenly over lines.
// Shares are at currency scale and sum exactly to the discount.
func DistributeDiscount(lines []Line, discountAmount decimal.Decimal) error {
	if len(lines) == 0 {
		return nil
	}
	shares, err := valueobject.NewMoneySAR(discountAmount).Allocate(len(lines))
	if err != nil {
		return err
	}
	for i := range lines {
		lines[i].Discount = shares[i].Amount()
	}
	return nil
}
