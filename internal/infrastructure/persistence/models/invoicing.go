package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// DocumentModel is the persistence model for the Document aggregate.
// (account_id, uid) is unique; a duplicate means identifier reuse.
type DocumentModel struct {
	AggregateModel
	AccountID     uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_documents_account_uid,priority:1;index:idx_documents_account_issued,priority:1"`
	UID           string                  `gorm:"column:uid;type:varchar(20);not null;uniqueIndex:idx_documents_account_uid,priority:2"`
	DocumentType  invoicing.DocumentType  `gorm:"type:varchar(10);not null"`
	InvoiceType   invoicing.InvoiceType   `gorm:"type:varchar(10);not null"`
	InvoiceCode   invoicing.InvoiceCode   `gorm:"type:varchar(10);not null"`
	PaymentMethod invoicing.PaymentMethod `gorm:"type:varchar(2);not null"`
	DeliveryDate  time.Time               `gorm:"not null"`
	CustomerID    *uuid.UUID              `gorm:"type:uuid;index"`
	CustomerData  *string                 `gorm:"type:jsonb"`

	DiscountKind       string              `gorm:"type:varchar(10);not null;default:'amount'"`
	DiscountValue      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	VATRate            valueobject.VATRate `gorm:"column:vat_rate;type:decimal(4,1);not null"`
	SubTotal           decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	VATAmount          decimal.Decimal     `gorm:"column:vat_amount;type:decimal(18,2);not null"`
	TotalAfterDiscount decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	TotalAfterVAT      decimal.Decimal     `gorm:"column:total_after_vat;type:decimal(18,2);not null"`
	QRCode             string              `gorm:"column:qr_code;type:text;not null"`
	SealedAt           *time.Time

	Status        invoicing.Status `gorm:"type:varchar(25);not null;default:'standby'"`
	IssuedAt      time.Time        `gorm:"not null;index:idx_documents_account_issued,priority:2"`
	SharedAt      *time.Time
	Note          string `gorm:"type:text"`
	ReferencePK   string `gorm:"column:reference_pk;type:varchar(20)"`
	InvoiceNumber *int64 `gorm:"type:bigint"`
	InvoicePK     string `gorm:"column:invoice_pk;type:varchar(100)"`
	ValidUntil    *time.Time

	Lines []DocumentLineModel `gorm:"foreignKey:DocumentID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// DocumentLineModel is the persistence model for a document line
type DocumentLineModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position   int                 `gorm:"not null"`
	ProductID  *uuid.UUID          `gorm:"type:uuid"`
	Name       string              `gorm:"type:varchar(200);not null"`
	UnitPrice  decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	VATRate    valueobject.VATRate `gorm:"column:vat_rate;type:decimal(4,1);not null"`
	Quantity   int64               `gorm:"not null"`
	Discount   decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	SubTotal   decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	VATAmount  decimal.Decimal     `gorm:"column:vat_amount;type:decimal(18,2);not null"`
	Total      decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// DocumentModelFromDomain creates a persistence model from a domain Document
func DocumentModelFromDomain(d *invoicing.Document) (*DocumentModel, error) {
	m := &DocumentModel{
		AccountID:          d.AccountID,
		UID:                d.UID,
		DocumentType:       d.DocumentType,
		InvoiceType:        d.InvoiceType,
		InvoiceCode:        d.InvoiceCode,
		PaymentMethod:      d.PaymentMethod,
		DeliveryDate:       d.DeliveryDate.UTC(),
		CustomerID:         d.CustomerID,
		DiscountKind:       string(d.Discount.Kind()),
		DiscountValue:      d.Discount.Value(),
		DiscountAmount:     d.DiscountAmount,
		VATRate:            d.VATRate,
		SubTotal:           d.SubTotal,
		VATAmount:          d.VATAmount,
		TotalAfterDiscount: d.TotalAfterDiscount,
		TotalAfterVAT:      d.TotalAfterVAT,
		QRCode:             d.QRCode,
		SealedAt:           utcPtr(d.SealedAt),
		Status:             d.Status,
		IssuedAt:           d.IssuedAt.UTC(),
		SharedAt:           utcPtr(d.SharedAt),
		Note:               d.Note,
		ReferencePK:        d.ReferencePK,
		InvoiceNumber:      d.InvoiceNumber,
		InvoicePK:          d.InvoicePK,
		ValidUntil:         utcPtr(d.ValidUntil),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)

	if d.Customer != nil {
		data, err := json.Marshal(d.Customer)
		if err != nil {
			return nil, fmt.Errorf("encode customer snapshot: %w", err)
		}
		snap := string(data)
		m.CustomerData = &snap
	}

	m.Lines = make([]DocumentLineModel, len(d.Lines))
	for i, l := range d.Lines {
		m.Lines[i] = DocumentLineModel{
			ID:         l.ID,
			DocumentID: d.ID,
			Position:   i,
			ProductID:  l.ProductID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			VATRate:    l.VATRate,
			Quantity:   l.Quantity,
			Discount:   l.Discount,
			SubTotal:   l.SubTotal,
			VATAmount:  l.VATAmount,
			Total:      l.Total,
		}
	}
	return m, nil
}

// ToDomain converts the persistence model to a domain Document. Lines are
// expected in position order.
func (m *DocumentModel) ToDomain() (*invoicing.Document, error) {
	discount, err := valueobject.ParseDiscount(m.DiscountKind, m.DiscountValue)
	if err != nil {
		return nil, fmt.Errorf("document %s: stored discount: %w", m.ID, err)
	}

	d := &invoicing.Document{
		AccountAggregateRoot: shared.AccountAggregateRoot{
			BaseAggregateRoot: m.ToDomainAggregateRoot(),
			AccountID:         m.AccountID,
		},
		UID:                m.UID,
		DocumentType:       m.DocumentType,
		InvoiceType:        m.InvoiceType,
		InvoiceCode:        m.InvoiceCode,
		PaymentMethod:      m.PaymentMethod,
		DeliveryDate:       m.DeliveryDate,
		CustomerID:         m.CustomerID,
		Discount:           discount,
		DiscountAmount:     m.DiscountAmount,
		VATRate:            m.VATRate,
		SubTotal:           m.SubTotal,
		VATAmount:          m.VATAmount,
		TotalAfterDiscount: m.TotalAfterDiscount,
		TotalAfterVAT:      m.TotalAfterVAT,
		QRCode:             m.QRCode,
		SealedAt:           m.SealedAt,
		Status:             m.Status,
		IssuedAt:           m.IssuedAt,
		SharedAt:           m.SharedAt,
		Note:               m.Note,
		ReferencePK:        m.ReferencePK,
		InvoiceNumber:      m.InvoiceNumber,
		InvoicePK:          m.InvoicePK,
		ValidUntil:         m.ValidUntil,
		Lines:              make([]invoicing.Line, len(m.Lines)),
	}

	if m.CustomerData != nil {
		var snap account.CustomerSnapshot
		if err := json.Unmarshal([]byte(*m.CustomerData), &snap); err != nil {
			return nil, fmt.Errorf("document %s: decode customer snapshot: %w", m.ID, err)
		}
		d.Customer = &snap
	}

	for i, l := range m.Lines {
		d.Lines[i] = invoicing.Line{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			VATRate:   l.VATRate,
			Quantity:  l.Quantity,
			Discount:  l.Discount,
			SubTotal:  l.SubTotal,
			VATAmount: l.VATAmount,
			Total:     l.Total,
		}
	}
	return d, nil
}

// DocumentHistoryModel is the persistence model for an append-only history record
type DocumentHistoryModel struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key"`
	AccountID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	ActionType  invoicing.ActionType  `gorm:"type:varchar(30);not null"`
	UID         string                `gorm:"column:uid;type:varchar(20);not null"`
	InvoiceCode invoicing.InvoiceCode `gorm:"type:varchar(10);not null"`
	QRCode      string                `gorm:"column:qr_code;type:text"`
	Status      invoicing.Status      `gorm:"type:varchar(25);not null"`
	CreatedDate time.Time             `gorm:"not null"`
	SharedDate  *time.Time
	Note        string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentHistoryModel) TableName() string {
	return "document_histories"
}

// DocumentHistoryModelFromDomain creates a persistence model from a HistoryRecord
func DocumentHistoryModelFromDomain(h *invoicing.HistoryRecord) *DocumentHistoryModel {
	return &DocumentHistoryModel{
		ID:          h.ID,
		AccountID:   h.AccountID,
		DocumentID:  h.DocumentID,
		ActionType:  h.ActionType,
		UID:         h.UID,
		InvoiceCode: h.InvoiceCode,
		QRCode:      h.QRCode,
		Status:      h.Status,
		CreatedDate: h.CreatedDate.UTC(),
		SharedDate:  utcPtr(h.SharedDate),
		Note:        h.Note,
		CreatedAt:   h.CreatedAt.UTC(),
	}
}

// ToDomain converts the persistence model to a domain HistoryRecord
func (m *DocumentHistoryModel) ToDomain() invoicing.HistoryRecord {
	return invoicing.HistoryRecord{
		ID:          m.ID,
		AccountID:   m.AccountID,
		DocumentID:  m.DocumentID,
		ActionType:  m.ActionType,
		UID:         m.UID,
		InvoiceCode: m.InvoiceCode,
		QRCode:      m.QRCode,
		Status:      m.Status,
		CreatedDate: m.CreatedDate,
		SharedDate:  m.SharedDate,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}
