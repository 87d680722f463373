package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
)

// =============================================================================
// Mock Document Repository
// =============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*invoicing.Document, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByUID(ctx context.Context, accountID uuid.UUID, uid string) (*invoicing.Document, error) {
	args := m.Called(ctx, accountID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, accountID uuid.UUID, filter invoicing.DocumentFilter) ([]invoicing.Document, int64, error) {
	args := m.Called(ctx, accountID, filter)
	return args.Get(0).([]invoicing.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *invoicing.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveWithLock(ctx context.Context, doc *invoicing.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountIssuedBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) SumTotals(ctx context.Context, accountID uuid.UUID, code invoicing.InvoiceCode, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, code, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// =============================================================================
// Mock History Repository
// =============================================================================

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, record *invoicing.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByDocument(ctx context.Context, accountID, documentID uuid.UUID) ([]invoicing.HistoryRecord, error) {
	args := m.Called(ctx, accountID, documentID)
	return args.Get(0).([]invoicing.HistoryRecord), args.Error(1)
}

// =============================================================================
// Mock Account Repositories
// =============================================================================

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, a *account.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) ([]account.CatalogEntry, error) {
	args := m.Called(ctx, accountID, ids)
	return args.Get(0).([]account.CatalogEntry), args.Error(1)
}

func (m *MockCatalogRepository) Save(ctx context.Context, entry *account.CatalogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*account.Customer, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *account.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// =============================================================================
// Mock Event Publisher, Transactor and Locker
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// stubTransactor runs fn directly and counts the transactions opened
type stubTransactor struct {
	calls int
	err   error
}

func (s *stubTransactor) WithinAccount(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(ctx)
}

type MockAccountLocker struct {
	mock.Mock
}

func (m *MockAccountLocker) WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, accountID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
