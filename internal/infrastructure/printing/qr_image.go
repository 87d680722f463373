package printing

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/fatoora/backend/internal/domain/invoicing"
)

// DataURIPrefix starts every rendered image
const DataURIPrefix = "data:image/png;base64,"

// QRImageRenderer turns a document's TLV payload into a scannable PNG
type QRImageRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewQRImageRenderer creates a renderer producing size x size pixel images.
// A non-positive size defaults to 256.
func NewQRImageRenderer(size int) *QRImageRenderer {
	if size <= 0 {
		size = 256
	}
	return &QRImageRenderer{size: size, level: qrcode.Medium}
}

// RenderPNG validates the payload and encodes it as a PNG image
func (r *QRImageRenderer) RenderPNG(payload string) ([]byte, error) {
	fields, err := invoicing.DecodeQRCode(payload)
	if err != nil {
		return nil, fmt.Errorf("refusing to render invalid qr payload: %w", err)
	}
	if fields.SellerName == "" || fields.VATNumber == "" {
		return nil, errors.New("refusing to render qr payload without seller")
	}
	img, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	return img, nil
}

// RenderDataURI renders the payload as a data URI usable in an <img> tag
func (r *QRImageRenderer) RenderDataURI(payload string) (string, error) {
	png, err := r.RenderPNG(payload)
	if err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
