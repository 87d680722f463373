package invoicing

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/shared"
)

func fixtureQRFields() QRFields {
	return QRFields{
		SellerName:   "Acme Trading",
		VATNumber:    "300000000000003",
		Timestamp:    "2025-03-10T12:00:00+03:00",
		TotalWithVAT: "1150.00",
		VATAmount:    "150.00",
	}
}

func TestEncodeQRCode_Fixture(t *testing.T) {
	got, err := EncodeQRCode(fixtureQRFields())
	require.NoError(t, err)
	assert.Equal(t, "AQxBY21lIFRyYWRpbmcCDzMwMDAwMDAwMDAwMDAwMwMZMjAyNS0wMy0xMFQxMjowMDowMCswMzowMAQHMTE1MC4wMAUGMTUwLjAw", got)

	again, err := EncodeQRCode(fixtureQRFields())
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEncodeQRCode_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		fields QRFields
	}{
		{"fixture", fixtureQRFields()},
		{"arabic seller name", QRFields{
			SellerName:   "شركة أكمي للتجارة",
			VATNumber:    "310122393500003",
			Timestamp:    "2025-01-01T00:00:00+03:00",
			TotalWithVAT: "0.00",
			VATAmount:    "0.00",
		}},
		{"seller name at the limit", QRFields{
			SellerName:   strings.Repeat("a", 255),
			VATNumber:    "300000000000003",
			Timestamp:    "t",
			TotalWithVAT: "1.00",
			VATAmount:    "0.15",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := EncodeQRCode(tt.fields)
			require.NoError(t, err)

			decoded, err := DecodeQRCode(payload)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, decoded)
		})
	}
}

func TestEncodeQRCode_TLVLayout(t *testing.T) {
	payload, err := EncodeQRCode(fixtureQRFields())
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(len("Acme Trading")), raw[1])
	assert.Equal(t, "Acme Trading", string(raw[2:14]))
	assert.Equal(t, byte(2), raw[14])
}

func TestEncodeQRCode_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *QRFields)
		wantField string
		wantCode  string
	}{
		{"seller name over 255 bytes", func(f *QRFields) { f.SellerName = strings.Repeat("a", 256) }, "seller_name", "QR_FIELD_TOO_LONG"},
		{"multibyte name over 255 bytes", func(f *QRFields) { f.SellerName = strings.Repeat("ش", 128) }, "seller_name", "QR_FIELD_TOO_LONG"},
		{"timestamp over 255 bytes", func(f *QRFields) { f.Timestamp = strings.Repeat("1", 300) }, "timestamp", "QR_FIELD_TOO_LONG"},
		{"missing seller name", func(f *QRFields) { f.SellerName = "" }, "seller_name", "QR_FIELD_MISSING"},
		{"missing vat number", func(f *QRFields) { f.VATNumber = "" }, "vat_number", "QR_FIELD_MISSING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixtureQRFields()
			tt.mutate(&f)
			_, err := EncodeQRCode(f)
			require.Error(t, err)

			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, shared.KindValidation, de.Kind)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantField, de.Field)
		})
	}
}

func TestDecodeQRCode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not base64", "%%%"},
		{"truncated header", base64.StdEncoding.EncodeToString([]byte{1})},
		{"length overruns", base64.StdEncoding.EncodeToString([]byte{1, 10, 'a'})},
		{"unknown tag", base64.StdEncoding.EncodeToString([]byte{9, 1, 'a'})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQRCode(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestQRTimestamp(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-10T12:00:00+03:00", QRTimestamp(at, riyadh))
}
