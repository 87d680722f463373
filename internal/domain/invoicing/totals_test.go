package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name              string
		lines             [][2]string // price, quantity
		discountKind      string
		discountValue     string
		wantSubTotal      string
		wantDiscount      string
		wantAfterDiscount string
		wantVAT           string
		wantAfterVAT      string
	}{
		{
			name:         "single line, no discount",
			lines:        [][2]string{{"1000.00", "1"}},
			wantSubTotal: "1000.00", wantDiscount: "0.00", wantAfterDiscount: "1000.00",
			wantVAT: "150.00", wantAfterVAT: "1150.00",
		},
		{
			name:         "amount discount",
			lines:        [][2]string{{"400.00", "2"}, {"200.00", "1"}},
			discountKind: "amount", discountValue: "100",
			wantSubTotal: "1000.00", wantDiscount: "100.00", wantAfterDiscount: "900.00",
			wantVAT: "135.00", wantAfterVAT: "1035.00",
		},
		{
			name:         "percentage discount resolved once",
			lines:        [][2]string{{"33.33", "3"}},
			discountKind: "percentage", discountValue: "10",
			wantSubTotal: "99.99", wantDiscount: "10.00", wantAfterDiscount: "89.99",
			wantVAT: "13.50", wantAfterVAT: "103.49",
		},
		{
			name:         "full discount",
			lines:        [][2]string{{"50.00", "1"}},
			discountKind: "percentage", discountValue: "100",
			wantSubTotal: "50.00", wantDiscount: "50.00", wantAfterDiscount: "0.00",
			wantVAT: "0.00", wantAfterVAT: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []Line
			for _, l := range tt.lines {
				lines = append(lines, mustLine(t, "item", l[0], dec(l[1]).IntPart()))
			}
			discount := valueobject.NoDiscount()
			if tt.discountKind != "" {
				var err error
				discount, err = valueobject.ParseDiscount(tt.discountKind, dec(tt.discountValue))
				require.NoError(t, err)
			}

			got, err := ComputeTotals(lines, discount, valueobject.VATStandard)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubTotal, got.SubTotal.StringFixed(2))
			assert.Equal(t, tt.wantDiscount, got.DiscountAmount.StringFixed(2))
			assert.Equal(t, tt.wantAfterDiscount, got.TotalAfterDiscount.StringFixed(2))
			assert.Equal(t, tt.wantVAT, got.VATAmount.StringFixed(2))
			assert.Equal(t, tt.wantAfterVAT, got.TotalAfterVAT.StringFixed(2))
		})
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	lines := []Line{mustLine(t, "a", "12.34", 5), mustLine(t, "b", "0.99", 7)}
	discount, err := valueobject.PercentageDiscount(dec("7.5"))
	require.NoError(t, err)

	first, err := ComputeTotals(lines, discount, valueobject.VATStandard)
	require.NoError(t, err)
	for range 10 {
		again, err := ComputeTotals(lines, discount, valueobject.VATStandard)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeTotals_Rejects(t *testing.T) {
	t.Run("no lines", func(t *testing.T) {
		_, err := ComputeTotals(nil, valueobject.NoDiscount(), valueobject.VATStandard)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		discount, err := valueobject.AmountDiscount(dec("10.01"))
		require.NoError(t, err)
		_, err = ComputeTotals([]Line{mustLine(t, "a", "10.00", 1)}, discount, valueobject.VATStandard)
		require.Error(t, err)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "DISCOUNT_EXCEEDS_SUBTOTAL", de.Code)
	})
}

func TestComputeTotals_SubCentAmountDiscount(t *testing.T) {
	_, err := valueobject.AmountDiscount(dec("0.005"))
	require.Error(t, err)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT_SCALE", de.Code)
	assert.Equal(t, "discount_amount", de.Field)

	// The smallest accepted discount keeps every total on whole cents and
	// the line shares summing to the discount.
	discount, err := valueobject.AmountDiscount(dec("0.01"))
	require.NoError(t, err)
	lines := []Line{mustLine(t, "a", "50", 1), mustLine(t, "b", "30", 1), mustLine(t, "c", "20", 1)}
	totals, err := ComputeTotals(lines, discount, valueobject.VATStandard)
	require.NoError(t, err)

	for _, v := range []decimal.Decimal{totals.DiscountAmount, totals.TotalAfterDiscount, totals.VATAmount, totals.TotalAfterVAT} {
		assert.True(t, valueobject.HasCurrencyScale(v), v.String())
	}
	assert.Equal(t, "99.99", totals.TotalAfterDiscount.StringFixed(2))
	assert.True(t, totals.SubTotal.Sub(totals.DiscountAmount).Equal(totals.TotalAfterDiscount))

	require.NoError(t, DistributeDiscount(lines, totals.DiscountAmount))
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Discount)
	}
	assert.True(t, sum.Equal(totals.DiscountAmount), sum.String())
}

func TestDistributeDiscount(t *testing.T) {
	lines := []Line{mustLine(t, "a", "10", 1), mustLine(t, "b", "10", 1), mustLine(t, "c", "10", 1)}
	require.NoError(t, DistributeDiscount(lines, dec("10.00")))

	assert.Equal(t, "3.34", lines[0].Discount.StringFixed(2))
	assert.Equal(t, "3.33", lines[1].Discount.StringFixed(2))
	assert.Equal(t, "3.33", lines[2].Discount.StringFixed(2))
	sum := lines[0].Discount.Add(lines[1].Discount).Add(lines[2].Discount)
	assert.True(t, sum.Equal(dec("10.00")))

	assert.NoError(t, DistributeDiscount(nil, dec("1")))
}
