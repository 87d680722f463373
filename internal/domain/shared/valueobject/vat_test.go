package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/shared"
)

func TestNewVATRate(t *testing.T) {
	tests := []struct {
		name    string
		pct     string
		wantErr bool
	}{
		{"exempt", "0", false},
		{"exempt with scale", "0.0", false},
		{"standard", "15", false},
		{"standard with scale", "15.0", false},
		{"five percent", "5", true},
		{"negative", "-15", true},
		{"almost standard", "15.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := NewVATRate(decimal.RequireFromString(tt.pct))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, rate.Percent().Equal(decimal.RequireFromString(tt.pct)))
		})
	}
}

func TestVATRate_Apply(t *testing.T) {
	tests := []struct {
		name string
		rate VATRate
		base string
		want string
	}{
		{"standard on round amount", VATStandard, "1000.00", "150.00"},
		{"rounds half up", VATStandard, "0.10", "0.02"},
		{"rounds down below half", VATStandard, "0.23", "0.03"},
		{"exempt", VATExempt, "999.99", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rate.Apply(decimal.RequireFromString(tt.base))
			assert.Equal(t, tt.want, got.StringFixed(CurrencyScale))
		})
	}
}

func TestVATRate_Scan(t *testing.T) {
	var r VATRate
	require.NoError(t, r.Scan("15.0"))
	assert.Equal(t, "15.0", r.String())

	assert.Error(t, r.Scan("7.5"))
}

func TestVATPolicy_RateFor(t *testing.T) {
	p := DefaultVATPolicy()
	assert.Equal(t, "15.0", p.RateFor(true).String())
	assert.Equal(t, "0.0", p.RateFor(false).String())
}
