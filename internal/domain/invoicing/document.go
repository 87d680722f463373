// Package invoicing is the document engine: line pricing, totals, QR
// payload, identifiers and the submission lifecycle of invoices, credit
// notes and price offers.
package invoicing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// Document is an invoice, credit note or price offer issued by an account.
// Once sealed, its lines and monetary fields never change; corrections go
// through a credit note.
type Document struct {
	shared.AccountAggregateRoot
	UID           string
	DocumentType  DocumentType
	InvoiceType   InvoiceType
	InvoiceCode   InvoiceCode
	PaymentMethod PaymentMethod
	DeliveryDate  time.Time
	CustomerID    *uuid.UUID
	Customer      *account.CustomerSnapshot
	Lines         []Line

	// Discount is the variant as entered; DiscountAmount is its absolute
	// value resolved at sealing time.
	Discount           valueobject.Discount
	DiscountAmount     decimal.Decimal
	VATRate            valueobject.VATRate
	SubTotal           decimal.Decimal
	VATAmount          decimal.Decimal
	TotalAfterDiscount decimal.Decimal
	TotalAfterVAT      decimal.Decimal
	QRCode             string
	SealedAt           *time.Time

	Status Status
	// IssuedAt is the fiscal creation time. Code and type transitions
	// reset it to the transition time.
	IssuedAt      time.Time
	SharedAt      *time.Time
	Note          string
	ReferencePK   string
	InvoiceNumber *int64
	InvoicePK     string
	ValidUntil    *time.Time
}

// NewDocumentParams holds the caller-supplied fields of a new document
type NewDocumentParams struct {
	DocumentType  DocumentType
	InvoiceType   InvoiceType
	PaymentMethod PaymentMethod
	DeliveryDate  time.Time
	Customer      *account.Customer
	Discount      valueobject.Discount
	ValidUntil    *time.Time
}

// NewDocument creates an unsealed standby document. A customer with a VAT
// number makes the document a standard invoice; the customer is frozen
// into a snapshot right away.
func NewDocument(accountID uuid.UUID, p NewDocumentParams, now time.Time, loc *time.Location) (*Document, error) {
	if p.DocumentType == "" {
		p.DocumentType = DocumentTypeInvoice
	}
	if p.InvoiceType == "" {
		p.InvoiceType = InvoiceTypeSimplified
	}
	if p.DeliveryDate.IsZero() {
		p.DeliveryDate = shared.StartOfDay(now.In(loc))
	}

	doc := &Document{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID, now),
		DocumentType:         p.DocumentType,
		InvoiceType:          p.InvoiceType,
		InvoiceCode:          InvoiceCodeInvoice,
		PaymentMethod:        p.PaymentMethod,
		DeliveryDate:         p.DeliveryDate,
		Discount:             p.Discount,
		DiscountAmount:       decimal.Zero,
		Status:               StatusStandby,
		IssuedAt:             now,
		ValidUntil:           p.ValidUntil,
		Lines:                make([]Line, 0),
	}

	if p.Customer != nil {
		if p.Customer.AccountID != accountID {
			return nil, shared.NewValidationError("INVALID_CUSTOMER", "customer", "invalid customer provided")
		}
		id := p.Customer.ID
		snap := p.Customer.Snapshot()
		doc.CustomerID = &id
		doc.Customer = &snap
		if p.Customer.HasTaxNumber() {
			doc.InvoiceType = InvoiceTypeStandard
		}
	}

	if err := doc.Validate(now, loc, true); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate enforces the rules checked before every save. The valid_until
// future-date rule only applies while creating.
func (d *Document) Validate(now time.Time, loc *time.Location, creating bool) error {
	if !d.DocumentType.IsValid() {
		return shared.NewValidationError("INVALID_DOCUMENT_TYPE", "document_type",
			fmt.Sprintf("unknown document type %q", d.DocumentType))
	}
	if !d.InvoiceType.IsValid() {
		return shared.NewValidationError("INVALID_INVOICE_TYPE", "invoice_type",
			fmt.Sprintf("unknown invoice type %q", d.InvoiceType))
	}
	if !d.PaymentMethod.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_METHOD", "payment_method",
			fmt.Sprintf("unknown payment method %q", d.PaymentMethod))
	}
	if d.InvoiceType == InvoiceTypeStandard && d.Customer == nil {
		return shared.NewValidationError("CUSTOMER_REQUIRED", "customer", "customer is required for standard invoice")
	}
	if err := d.Discount.Validate(); err != nil {
		return err
	}
	if d.DocumentType == DocumentTypeOffer && d.ValidUntil == nil {
		return shared.NewValidationError("VALID_UNTIL_REQUIRED", "valid_until",
			"valid until date is required for offer documents")
	}
	if creating && d.ValidUntil != nil {
		today := shared.StartOfDay(now.In(loc))
		if !shared.StartOfDay(d.ValidUntil.In(loc)).After(today) {
			return shared.NewValidationError("VALID_UNTIL_NOT_FUTURE", "valid_until",
				"valid until date must be a future date")
		}
	}
	return nil
}

// IsSealed reports whether totals have been computed
func (d *Document) IsSealed() bool {
	return d.SealedAt != nil
}

// AssignUID sets the identifier of a new document. It is set exactly once.
func (d *Document) AssignUID(uid string) error {
	if d.UID != "" {
		return shared.NewInvariantViolation("UID_ALREADY_ASSIGNED",
			fmt.Sprintf("document already has identifier %s", d.UID))
	}
	d.UID = uid
	return nil
}

// AddLine appends a computed line to an unsealed document
func (d *Document) AddLine(l Line) error {
	if d.IsSealed() {
		return shared.NewInvariantViolation("DOCUMENT_SEALED", "lines of a sealed document cannot change")
	}
	if !l.IsFrozen() {
		return shared.NewInvariantViolation("LINE_NOT_COMPUTED", "line must be computed before it is added")
	}
	d.Lines = append(d.Lines, l)
	return nil
}

// Seal computes the totals and the QR code exactly once, then spreads the
// discount over the lines. After sealing the financial fields are final.
func (d *Document) Seal(seller account.FiscalProfile, now time.Time) error {
	if d.IsSealed() {
		return shared.NewInvariantViolation("DOCUMENT_SEALED",
			fmt.Sprintf("document %s is already sealed", d.UID))
	}
	if d.UID == "" {
		return shared.NewInvariantViolation("UID_MISSING", "document must have an identifier before sealing")
	}

	totals, err := ComputeTotals(d.Lines, d.Discount, seller.VATRate)
	if err != nil {
		return err
	}

	qr, err := EncodeQRCode(QRFields{
		SellerName:   seller.SellerName,
		VATNumber:    seller.TaxNumber,
		Timestamp:    QRTimestamp(d.IssuedAt, seller.Loc()),
		TotalWithVAT: totals.TotalAfterVAT.StringFixed(valueobject.CurrencyScale),
		VATAmount:    totals.VATAmount.StringFixed(valueobject.CurrencyScale),
	})
	if err != nil {
		return err
	}

	if !totals.DiscountAmount.IsZero() {
		if err := DistributeDiscount(d.Lines, totals.DiscountAmount); err != nil {
			return fmt.Errorf("distribute discount: %w", err)
		}
	}

	d.VATRate = seller.VATRate
	d.SubTotal = totals.SubTotal
	d.DiscountAmount = totals.DiscountAmount
	d.TotalAfterDiscount = totals.TotalAfterDiscount
	d.VATAmount = totals.VATAmount
	d.TotalAfterVAT = totals.TotalAfterVAT
	d.QRCode = qr
	d.SealedAt = &now
	d.UpdatedAt = now

	d.AddDomainEvent(NewDocumentSealedEvent(d))
	return nil
}
