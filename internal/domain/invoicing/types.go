package invoicing

// DocumentType distinguishes issued invoices from price offers
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeOffer   DocumentType = "offer"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeOffer
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}

// InvoiceType is the tax-authority invoice category
type InvoiceType string

const (
	// InvoiceTypeSimplified is a B2C invoice, no buyer VAT data required
	InvoiceTypeSimplified InvoiceType = "simplified"
	// InvoiceTypeStandard is a B2B tax invoice and needs a customer
	InvoiceTypeStandard InvoiceType = "standard"
)

// IsValid checks if the invoice type is known
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeSimplified || t == InvoiceTypeStandard
}

// InvoiceCode is the fiscal code of a document
type InvoiceCode string

const (
	InvoiceCodeInvoice InvoiceCode = "invoice"
	InvoiceCodeCredit  InvoiceCode = "credit"
	InvoiceCodeDebit   InvoiceCode = "debit"
)

// IsValid checks if the invoice code is known
func (c InvoiceCode) IsValid() bool {
	switch c {
	case InvoiceCodeInvoice, InvoiceCodeCredit, InvoiceCodeDebit:
		return true
	}
	return false
}

// PaymentMethod uses the tax-authority payment means codes
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "10"
	PaymentMethodCredit      PaymentMethod = "30"
	PaymentMethodBankAccount PaymentMethod = "42"
	PaymentMethodBankCard    PaymentMethod = "48"
)

// IsValid checks if the payment method is known
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCredit, PaymentMethodBankAccount, PaymentMethodBankCard:
		return true
	}
	return false
}
