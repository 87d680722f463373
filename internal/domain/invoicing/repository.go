package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
)

// DocumentFilter narrows document listings
type DocumentFilter struct {
	shared.Filter
	DocumentType DocumentType
	InvoiceCode  InvoiceCode
	Status       Status
	From         *time.Time
	To           *time.Time
}

// DocumentRepository defines the interface for document persistence.
// Methods join the transaction carried by ctx when there is one.
type DocumentRepository interface {
	// FindByID finds a document of the account, with lines
	FindByID(ctx context.Context, accountID, id uuid.UUID) (*Document, error)

	// FindByUID finds a document of the account by identifier
	FindByUID(ctx context.Context, accountID uuid.UUID, uid string) (*Document, error)

	// List returns a page of the account's documents and the total count
	List(ctx context.Context, accountID uuid.UUID, filter DocumentFilter) ([]Document, int64, error)

	// Create inserts a sealed document and its lines. A duplicate
	// identifier within the account is an InvariantViolation.
	Create(ctx context.Context, doc *Document) error

	// SaveWithLock updates the document's lifecycle fields if its stored
	// version is one below doc.Version. Otherwise returns a ConflictError.
	SaveWithLock(ctx context.Context, doc *Document) error

	// CountIssuedBetween counts the account's documents with issued_at in [from, to)
	CountIssuedBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error)

	// SumTotals sums total_after_vat of invoice-type documents with the
	// given code issued in [from, to)
	SumTotals(ctx context.Context, accountID uuid.UUID, code InvoiceCode, from, to time.Time) (decimal.Decimal, error)
}

// HistoryRepository stores append-only history records
type HistoryRepository interface {
	// Append inserts a history record
	Append(ctx context.Context, record *HistoryRecord) error

	// ListByDocument returns a document's history ordered by creation time
	ListByDocument(ctx context.Context, accountID, documentID uuid.UUID) ([]HistoryRecord, error)
}
