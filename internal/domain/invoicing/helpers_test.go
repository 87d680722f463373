package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

var (
	riyadh    = time.FixedZone("AST", 3*60*60)
	testNow   = time.Date(2025, 3, 10, 9, 0, 0, 0, riyadh)
	accountID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSeller() account.FiscalProfile {
	return account.FiscalProfile{
		AccountID:  accountID,
		SellerName: "Acme Trading",
		TaxNumber:  "300000000000003",
		VATRate:    valueobject.VATStandard,
		Location:   riyadh,
	}
}

func catalogEntry(name, price string) account.CatalogEntry {
	return account.CatalogEntry{ID: uuid.New(), AccountID: accountID, Name: name, Price: dec(price)}
}

func mustLine(t *testing.T, name, price string, qty int64) Line {
	t.Helper()
	l, err := ComputeLine(catalogEntry(name, price), qty, valueobject.VATStandard)
	require.NoError(t, err)
	return l
}

func newTestDocument(t *testing.T, p NewDocumentParams) *Document {
	t.Helper()
	if p.PaymentMethod == "" {
		p.PaymentMethod = PaymentMethodCash
	}
	doc, err := NewDocument(accountID, p, testNow, riyadh)
	require.NoError(t, err)
	require.NoError(t, doc.AssignUID(ComposeUID(doc.DocumentType, testNow, 0)))
	return doc
}

// createSealedInvoice builds a sealed invoice of one 1000.00 line
func createSealedInvoice(t *testing.T) *Document {
	t.Helper()
	doc := newTestDocument(t, NewDocumentParams{})
	require.NoError(t, doc.AddLine(mustLine(t, "Consulting", "1000.00", 1)))
	require.NoError(t, doc.Seal(testSeller(), testNow))
	return doc
}

func createSealedOffer(t *testing.T, validUntil time.Time) *Document {
	t.Helper()
	doc := newTestDocument(t, NewDocumentParams{DocumentType: DocumentTypeOffer, ValidUntil: &validUntil})
	require.NoError(t, doc.AddLine(mustLine(t, "Consulting", "500.00", 2)))
	require.NoError(t, doc.Seal(testSeller(), testNow))
	return doc
}
