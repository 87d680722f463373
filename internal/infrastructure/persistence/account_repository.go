package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/persistence/models"
)

// GormAccountRepository implements account.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserID finds the account of a user
func (r *GormAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *GormAccountRepository) findOne(ctx context.Context, query string, arg any) (*account.Account, error) {
	var model models.AccountModel
	if err := conn(ctx, r.db).Where(query, arg).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, a *account.Account) error {
	return translateError(conn(ctx, r.db).Save(models.AccountModelFromDomain(a)).Error)
}

// GormCatalogRepository implements account.CatalogRepository using GORM
type GormCatalogRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB, clock shared.Clock) *GormCatalogRepository {
	return &GormCatalogRepository{db: db, clock: clock}
}

// FindByIDs returns the account's catalog entries among ids. Entries of
// other accounts are silently excluded.
func (r *GormCatalogRepository) FindByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) ([]account.CatalogEntry, error) {
	if len(ids) == 0 {
		return []account.CatalogEntry{}, nil
	}
	var rows []models.ProductModel
	if err := conn(ctx, r.db).
		Where("account_id = ? AND id IN ?", accountID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]account.CatalogEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Save inserts the entry or updates its name and price
func (r *GormCatalogRepository) Save(ctx context.Context, entry *account.CatalogEntry) error {
	return upsert(conn(ctx, r.db), models.ProductModelFromDomain(entry, r.clock.Now()),
		"name", "price", "updated_at")
}

// GormCustomerRepository implements account.CustomerRepository using GORM
type GormCustomerRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB, clock shared.Clock) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, clock: clock}
}

// FindByID finds a customer of the account
func (r *GormCustomerRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*account.Customer, error) {
	var model models.CustomerModel
	if err := conn(ctx, r.db).
		Where("account_id = ? AND id = ?", accountID, id).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts the customer or updates its details
func (r *GormCustomerRepository) Save(ctx context.Context, c *account.Customer) error {
	return upsert(conn(ctx, r.db), models.CustomerModelFromDomain(c, r.clock.Now()),
		"organization", "tax_number", "city", "street", "phone", "email",
		"building_number", "postal_zone", "district_name", "updated_at")
}

// upsert inserts value or, on a primary key conflict, updates columns only.
// created_at is never overwritten.
func upsert(db *gorm.DB, value any, columns ...string) error {
	return translateError(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(value).Error)
}

var (
	_ account.AccountRepository  = (*GormAccountRepository)(nil)
	_ account.CatalogRepository  = (*GormCatalogRepository)(nil)
	_ account.CustomerRepository = (*GormCustomerRepository)(nil)
)
