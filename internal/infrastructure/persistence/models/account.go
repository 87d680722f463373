package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// AccountModel is the persistence model for the Account aggregate.
// Its row is also the per-account lock target for identifier generation.
type AccountModel struct {
	AggregateModel
	UserID                     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	JoinedAt                   time.Time           `gorm:"not null"`
	Organization               string              `gorm:"type:varchar(200)"`
	RegisterNumber             string              `gorm:"type:varchar(10)"`
	TaxNumber                  string              `gorm:"type:varchar(15)"`
	Country                    string              `gorm:"type:varchar(2);not null;default:'SA'"`
	City                       string              `gorm:"type:varchar(100)"`
	Street                     string              `gorm:"type:varchar(200)"`
	Phone                      string              `gorm:"type:varchar(20)"`
	Taxable                    bool                `gorm:"not null;default:true"`
	VATRate                    valueobject.VATRate `gorm:"type:decimal(4,1);not null"`
	RequiresFiscalConfirmation bool                `gorm:"not null;default:false"`
	FiscalConfigUpdatedAt      *time.Time
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *account.Account {
	return &account.Account{
		BaseAggregateRoot:          m.ToDomainAggregateRoot(),
		UserID:                     m.UserID,
		JoinedAt:                   m.JoinedAt,
		Organization:               m.Organization,
		RegisterNumber:             m.RegisterNumber,
		TaxNumber:                  m.TaxNumber,
		Country:                    m.Country,
		City:                       m.City,
		Street:                     m.Street,
		Phone:                      m.Phone,
		Taxable:                    m.Taxable,
		VATRate:                    m.VATRate,
		RequiresFiscalConfirmation: m.RequiresFiscalConfirmation,
		FiscalConfigUpdatedAt:      m.FiscalConfigUpdatedAt,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *account.Account) *AccountModel {
	m := &AccountModel{
		UserID:                     a.UserID,
		JoinedAt:                   a.JoinedAt.UTC(),
		Organization:               a.Organization,
		RegisterNumber:             a.RegisterNumber,
		TaxNumber:                  a.TaxNumber,
		Country:                    a.Country,
		City:                       a.City,
		Street:                     a.Street,
		Phone:                      a.Phone,
		Taxable:                    a.Taxable,
		VATRate:                    a.VATRate,
		RequiresFiscalConfirmation: a.RequiresFiscalConfirmation,
		FiscalConfigUpdatedAt:      utcPtr(a.FiscalConfigUpdatedAt),
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for a catalog entry
type ProductModel struct {
	BaseModel
	AccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain CatalogEntry
func (m *ProductModel) ToDomain() account.CatalogEntry {
	return account.CatalogEntry{
		ID:        m.ID,
		AccountID: m.AccountID,
		Name:      m.Name,
		Price:     m.Price,
	}
}

// ProductModelFromDomain creates a persistence model from a CatalogEntry
func ProductModelFromDomain(e *account.CatalogEntry, now time.Time) *ProductModel {
	return &ProductModel{
		BaseModel: BaseModel{ID: e.ID, CreatedAt: now.UTC(), UpdatedAt: now.UTC()},
		AccountID: e.AccountID,
		Name:      e.Name,
		Price:     e.Price,
	}
}

// CustomerModel is the persistence model for a customer of an account
type CustomerModel struct {
	BaseModel
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Organization   string    `gorm:"type:varchar(200);not null"`
	TaxNumber      string    `gorm:"type:varchar(15)"`
	City           string    `gorm:"type:varchar(100)"`
	Street         string    `gorm:"type:varchar(200)"`
	Phone          string    `gorm:"type:varchar(20)"`
	Email          string    `gorm:"type:varchar(200)"`
	BuildingNumber string    `gorm:"type:varchar(4)"`
	PostalZone     string    `gorm:"type:varchar(5)"`
	DistrictName   string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *account.Customer {
	return &account.Customer{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Organization:   m.Organization,
		TaxNumber:      m.TaxNumber,
		City:           m.City,
		Street:         m.Street,
		Phone:          m.Phone,
		Email:          m.Email,
		BuildingNumber: m.BuildingNumber,
		PostalZone:     m.PostalZone,
		DistrictName:   m.DistrictName,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *account.Customer, now time.Time) *CustomerModel {
	return &CustomerModel{
		BaseModel:      BaseModel{ID: c.ID, CreatedAt: now.UTC(), UpdatedAt: now.UTC()},
		AccountID:      c.AccountID,
		Organization:   c.Organization,
		TaxNumber:      c.TaxNumber,
		City:           c.City,
		Street:         c.Street,
		Phone:          c.Phone,
		Email:          c.Email,
		BuildingNumber: c.BuildingNumber,
		PostalZone:     c.PostalZone,
		DistrictName:   c.DistrictName,
	}
}
