package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/subscription"
)

// PackageModel is the persistence model for a subscription package
type PackageModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name          string          `gorm:"type:varchar(100);not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FiscalRelated bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PackageModel) TableName() string {
	return "packages"
}

// ToDomain converts the persistence model to a domain Package
func (m *PackageModel) ToDomain() *subscription.Package {
	return &subscription.Package{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		FiscalRelated: m.FiscalRelated,
		CreatedAt:     m.CreatedAt,
	}
}

// PackageModelFromDomain creates a persistence model from a domain Package
func PackageModelFromDomain(p *subscription.Package) *PackageModel {
	return &PackageModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		FiscalRelated: p.FiscalRelated,
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

// SubscriptionRecordModel is the persistence model for a subscription record.
// package_id is nullable: deleting a package keeps the snapshot columns.
type SubscriptionRecordModel struct {
	ID                   uuid.UUID                 `gorm:"type:uuid;primary_key"`
	UserID               uuid.UUID                 `gorm:"type:uuid;not null;index:idx_subscription_records_user,priority:1"`
	PackageID            *uuid.UUID                `gorm:"type:uuid"`
	Status               subscription.RecordStatus `gorm:"type:varchar(15);not null;default:'pending'"`
	DurationMonths       int                       `gorm:"not null"`
	Amount               *decimal.Decimal          `gorm:"type:decimal(18,2)"`
	Discount             decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	ExpirationDate       *time.Time
	PackageName          string           `gorm:"type:varchar(100)"`
	PackageDescription   string           `gorm:"type:text"`
	PackagePrice         *decimal.Decimal `gorm:"type:decimal(18,2)"`
	PackageFiscalRelated bool             `gorm:"not null;default:false"`
	Note                 string           `gorm:"type:text"`
	CreatedAt            time.Time        `gorm:"not null;index:idx_subscription_records_user,priority:2"`
	UpdatedAt            time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriptionRecordModel) TableName() string {
	return "subscription_records"
}

// ToDomain converts the persistence model to a domain Record
func (m *SubscriptionRecordModel) ToDomain() subscription.Record {
	return subscription.Record{
		ID:                   m.ID,
		UserID:               m.UserID,
		PackageID:            m.PackageID,
		Status:               m.Status,
		DurationMonths:       m.DurationMonths,
		Amount:               m.Amount,
		Discount:             m.Discount,
		ExpirationDate:       m.ExpirationDate,
		PackageName:          m.PackageName,
		PackageDescription:   m.PackageDescription,
		PackagePrice:         m.PackagePrice,
		PackageFiscalRelated: m.PackageFiscalRelated,
		Note:                 m.Note,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// SubscriptionRecordModelFromDomain creates a persistence model from a domain Record
func SubscriptionRecordModelFromDomain(r *subscription.Record) *SubscriptionRecordModel {
	return &SubscriptionRecordModel{
		ID:                   r.ID,
		UserID:               r.UserID,
		PackageID:            r.PackageID,
		Status:               r.Status,
		DurationMonths:       r.DurationMonths,
		Amount:               r.Amount,
		Discount:             r.Discount,
		ExpirationDate:       utcPtr(r.ExpirationDate),
		PackageName:          r.PackageName,
		PackageDescription:   r.PackageDescription,
		PackagePrice:         r.PackagePrice,
		PackageFiscalRelated: r.PackageFiscalRelated,
		Note:                 r.Note,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}
