package invoicing

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fatoora/backend/internal/domain/shared"
)

// TLV tags of the simplified-invoice QR payload, in encoding order
const (
	TagSellerName   byte = 1
	TagVATNumber    byte = 2
	TagTimestamp    byte = 3
	TagTotalWithVAT byte = 4
	TagVATAmount    byte = 5
)

// maxTLVValue is the longest value a single length byte can describe
const maxTLVValue = 255

// QRFields are the five fiscal values carried by a document QR code
type QRFields struct {
	SellerName   string
	VATNumber    string
	Timestamp    string
	TotalWithVAT string
	VATAmount    string
}

type tlvField struct {
	tag   byte
	field string
	value string
}

func (f QRFields) ordered() []tlvField {
	return []tlvField{
		{TagSellerName, "seller_name", f.SellerName},
		{TagVATNumber, "vat_number", f.VATNumber},
		{TagTimestamp, "timestamp", f.Timestamp},
		{TagTotalWithVAT, "total_with_vat", f.TotalWithVAT},
		{TagVATAmount, "vat_amount", f.VATAmount},
	}
}

// QRTimestamp formats the document issue time for tag 3
func QRTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

// EncodeQRCode encodes the fields as TLV triples and base64s the result.
// A value longer than 255 bytes is rejected rather than truncated, and
// seller name and VAT number must be present.
func EncodeQRCode(f QRFields) (string, error) {
	size := 0
	for _, tlv := range f.ordered() {
		if len(tlv.value) > maxTLVValue {
			return "", shared.NewValidationError("QR_FIELD_TOO_LONG", tlv.field,
				fmt.Sprintf("value is %d bytes, QR fields are limited to %d", len(tlv.value), maxTLVValue))
		}
		size += 2 + len(tlv.value)
	}
	if f.SellerName == "" {
		return "", shared.NewValidationError("QR_FIELD_MISSING", "seller_name", "seller name is required for the QR code")
	}
	if f.VATNumber == "" {
		return "", shared.NewValidationError("QR_FIELD_MISSING", "vat_number", "seller VAT number is required for the QR code")
	}

	buf := make([]byte, 0, size)
	for _, tlv := range f.ordered() {
		buf = append(buf, tlv.tag, byte(len(tlv.value)))
		buf = append(buf, tlv.value...)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeQRCode parses a payload produced by EncodeQRCode. Unknown tags are
// an error; so is a length running past the end of the stream.
func DecodeQRCode(payload string) (QRFields, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return QRFields{}, fmt.Errorf("decode qr base64: %w", err)
	}

	var f QRFields
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return QRFields{}, fmt.Errorf("truncated tlv header at offset %d", i)
		}
		tag, length := raw[i], int(raw[i+1])
		i += 2
		if i+length > len(raw) {
			return QRFields{}, fmt.Errorf("tlv tag %d length %d overruns payload", tag, length)
		}
		value := string(raw[i : i+length])
		i += length

		switch tag {
		case TagSellerName:
			f.SellerName = value
		case TagVATNumber:
			f.VATNumber = value
		case TagTimestamp:
			f.Timestamp = value
		case TagTotalWithVAT:
			f.TotalWithVAT = value
		case TagVATAmount:
			f.VATAmount = value
		default:
			return QRFields{}, fmt.Errorf("unknown tlv tag %d", tag)
		}
	}
	return f, nil
}
