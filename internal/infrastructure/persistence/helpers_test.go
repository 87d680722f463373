package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
	"github.com/fatoora/backend/internal/infrastructure/persistence/models"
)

var (
	riyadh  = time.FixedZone("AST", 3*60*60)
	testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, riyadh)
)

// newTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.AccountModel{},
		&models.ProductModel{},
		&models.CustomerModel{},
		&models.DocumentModel{},
		&models.DocumentLineModel{},
		&models.DocumentHistoryModel{},
		&models.PackageModel{},
		&models.SubscriptionRecordModel{},
	))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestAccount() *account.Account {
	a := account.NewAccount(uuid.New(), testNow.AddDate(0, -1, 0), valueobject.DefaultVATPolicy())
	a.Organization = "Acme Trading"
	a.TaxNumber = "300000000000003"
	return a
}

func seedAccount(t *testing.T, db *gorm.DB) *account.Account {
	t.Helper()
	a := newTestAccount()
	require.NoError(t, NewGormAccountRepository(db).Save(context.Background(), a))
	return a
}

// sealedInvoice builds a sealed invoice with the given identifier counter
func sealedInvoice(t *testing.T, a *account.Account, issuedAt time.Time, counter int64, prices ...string) *invoicing.Document {
	t.Helper()
	doc, err := invoicing.NewDocument(a.ID, invoicing.NewDocumentParams{
		PaymentMethod: invoicing.PaymentMethodCash,
	}, issuedAt, riyadh)
	require.NoError(t, err)
	require.NoError(t, doc.AssignUID(invoicing.ComposeUID(doc.DocumentType, issuedAt.In(riyadh), counter)))
	for _, p := range prices {
		entry := account.CatalogEntry{ID: uuid.New(), AccountID: a.ID, Name: "Item " + p, Price: dec(p)}
		line, err := invoicing.ComputeLine(entry, 1, a.VATRate)
		require.NoError(t, err)
		require.NoError(t, doc.AddLine(line))
	}
	require.NoError(t, doc.Seal(a.FiscalProfile(riyadh), issuedAt))
	return doc
}
