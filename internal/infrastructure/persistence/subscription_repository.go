package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/subscription"
	"github.com/fatoora/backend/internal/infrastructure/persistence/models"
)

// GormSubscriptionRepository implements subscription.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a record by ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Record, error) {
	var model models.SubscriptionRecordModel
	if err := conn(ctx, r.db).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rec := model.ToDomain()
	return &rec, nil
}

// ListByUser returns the user's records, oldest first
func (r *GormSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]subscription.Record, error) {
	var rows []models.SubscriptionRecordModel
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]subscription.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// Create inserts a new record
func (r *GormSubscriptionRepository) Create(ctx context.Context, rec *subscription.Record) error {
	return translateError(conn(ctx, r.db).Create(models.SubscriptionRecordModelFromDomain(rec)).Error)
}

// UpdateStatus stores the status and note of a record
func (r *GormSubscriptionRepository) UpdateStatus(ctx context.Context, rec *subscription.Record) error {
	result := conn(ctx, r.db).
		Model(&models.SubscriptionRecordModel{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"status":     rec.Status,
			"note":       rec.Note,
			"updated_at": rec.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CompleteIfUnapplied stores the completed state only while the stored
// expiration is still NULL. It reports whether this call applied it.
func (r *GormSubscriptionRepository) CompleteIfUnapplied(ctx context.Context, rec *subscription.Record) (bool, error) {
	model := models.SubscriptionRecordModelFromDomain(rec)
	result := conn(ctx, r.db).
		Model(&models.SubscriptionRecordModel{}).
		Where("id = ? AND expiration_date IS NULL", rec.ID).
		Updates(map[string]any{
			"status":                 model.Status,
			"amount":                 model.Amount,
			"expiration_date":        model.ExpirationDate,
			"package_name":           model.PackageName,
			"package_description":    model.PackageDescription,
			"package_price":          model.PackagePrice,
			"package_fiscal_related": model.PackageFiscalRelated,
			"updated_at":             model.UpdatedAt,
		})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// GormPackageRepository implements subscription.PackageRepository using GORM
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// FindByID finds a package by ID
func (r *GormPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Package, error) {
	var model models.PackageModel
	if err := conn(ctx, r.db).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns all packages ordered by price
func (r *GormPackageRepository) List(ctx context.Context) ([]subscription.Package, error) {
	var rows []models.PackageModel
	if err := conn(ctx, r.db).Order("price ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	pkgs := make([]subscription.Package, len(rows))
	for i := range rows {
		pkgs[i] = *rows[i].ToDomain()
	}
	return pkgs, nil
}

// Save creates or updates a package
func (r *GormPackageRepository) Save(ctx context.Context, p *subscription.Package) error {
	return upsert(conn(ctx, r.db), models.PackageModelFromDomain(p),
		"name", "description", "price", "fiscal_related")
}

var (
	_ subscription.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
	_ subscription.PackageRepository      = (*GormPackageRepository)(nil)
)
