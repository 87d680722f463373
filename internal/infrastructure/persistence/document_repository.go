package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
	"github.com/fatoora/backend/internal/infrastructure/persistence/models"
)

// lifecycleColumns are the only document columns that change after creation
var lifecycleColumns = []string{
	"version", "updated_at", "uid", "document_type", "invoice_code", "status",
	"issued_at", "shared_at", "note", "reference_pk", "invoice_number", "invoice_pk",
}

// GormDocumentRepository implements invoicing.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds a document of the account, with lines
func (r *GormDocumentRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*invoicing.Document, error) {
	var model models.DocumentModel
	if err := withLines(conn(ctx, r.db)).
		Where("account_id = ? AND id = ?", accountID, id).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByUID finds a document of the account by identifier
func (r *GormDocumentRepository) FindByUID(ctx context.Context, accountID uuid.UUID, uid string) (*invoicing.Document, error) {
	var model models.DocumentModel
	if err := withLines(conn(ctx, r.db)).
		Where("account_id = ? AND uid = ?", accountID, uid).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// List returns a page of the account's documents and the total count
func (r *GormDocumentRepository) List(ctx context.Context, accountID uuid.UUID, filter invoicing.DocumentFilter) ([]invoicing.Document, int64, error) {
	query := conn(ctx, r.db).Model(&models.DocumentModel{}).Where("account_id = ?", accountID)
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.InvoiceCode != "" {
		query = query.Where("invoice_code = ?", filter.InvoiceCode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("issued_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("issued_at < ?", filter.To.UTC())
	}
	if filter.Search != "" {
		query = query.Where("uid LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize < 1 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}
	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "issued_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	var rows []models.DocumentModel
	if err := withLines(query).
		Order(orderBy + " " + orderDir).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	docs := make([]invoicing.Document, 0, len(rows))
	for i := range rows {
		d, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, total, nil
}

// Create inserts a sealed document with its lines. A duplicate identifier
// within the account is an InvariantViolation.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *invoicing.Document) error {
	model, err := models.DocumentModelFromDomain(doc)
	if err != nil {
		return err
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewInvariantViolation("IDENTIFIER_REUSED",
				fmt.Sprintf("identifier %s is already used by this account", doc.UID))
		}
		return translateError(err)
	}
	return nil
}

// SaveWithLock stores the lifecycle fields if the stored version is one
// below doc.Version. Otherwise returns a ConflictError.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *invoicing.Document) error {
	model, err := models.DocumentModelFromDomain(doc)
	if err != nil {
		return err
	}
	model.Lines = nil

	result := conn(ctx, r.db).
		Model(&models.DocumentModel{}).
		Where("id = ? AND account_id = ? AND version = ?", doc.ID, doc.AccountID, doc.Version-1).
		Select(lifecycleColumns).
		Updates(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.NewInvariantViolation("IDENTIFIER_REUSED",
				fmt.Sprintf("identifier %s is already used by this account", doc.UID))
		}
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("OPTIMISTIC_LOCK_ERROR",
			"the document has been modified by another transaction")
	}
	return nil
}

// CountIssuedBetween counts the account's documents with issued_at in [from, to)
func (r *GormDocumentRepository) CountIssuedBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.DocumentModel{}).
		Where("account_id = ? AND issued_at >= ? AND issued_at < ?", accountID, from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// SumTotals sums total_after_vat of invoice-type documents with the given
// code issued in [from, to)
func (r *GormDocumentRepository) SumTotals(ctx context.Context, accountID uuid.UUID, code invoicing.InvoiceCode, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := conn(ctx, r.db).Model(&models.DocumentModel{}).
		Select("SUM(total_after_vat)").
		Where("account_id = ? AND document_type = ? AND invoice_code = ? AND issued_at >= ? AND issued_at < ?",
			accountID, invoicing.DocumentTypeInvoice, code, from.UTC(), to.UTC()).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return valueobject.RoundCurrency(sum.Decimal), nil
}

// GormHistoryRepository implements invoicing.HistoryRepository using GORM
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Append inserts a history record
func (r *GormHistoryRepository) Append(ctx context.Context, record *invoicing.HistoryRecord) error {
	return translateError(conn(ctx, r.db).Create(models.DocumentHistoryModelFromDomain(record)).Error)
}

// ListByDocument returns a document's history ordered by creation time
func (r *GormHistoryRepository) ListByDocument(ctx context.Context, accountID, documentID uuid.UUID) ([]invoicing.HistoryRecord, error) {
	var rows []models.DocumentHistoryModel
	if err := conn(ctx, r.db).
		Where("account_id = ? AND document_id = ?", accountID, documentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]invoicing.HistoryRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

var (
	_ invoicing.DocumentRepository = (*GormDocumentRepository)(nil)
	_ invoicing.HistoryRepository  = (*GormHistoryRepository)(nil)
)
