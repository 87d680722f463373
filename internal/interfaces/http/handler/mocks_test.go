package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	accountapp "github.com/fatoora/backend/internal/application/account"
	invoicingapp "github.com/fatoora/backend/internal/application/invoicing"
	subscriptionapp "github.com/fatoora/backend/internal/application/subscription"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withCaller simulates the account middleware chain
func withCaller(userID, accountID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.UserIDKey, userID)
		}
		if accountID != uuid.Nil {
			c.Set(middleware.AccountIDKey, accountID)
		}
		c.Next()
	}
}

// =============================================================================
// Mock Document Service
// =============================================================================

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) ComputeDocument(ctx context.Context, accountID uuid.UUID, req invoicingapp.CreateDocumentRequest) (*invoicingapp.DocumentResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) TransitionInvoiceCode(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.TransitionResponse, error) {
	args := m.Called(ctx, accountID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.TransitionResponse), args.Error(1)
}

func (m *MockDocumentService) TransitionDocumentType(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.TransitionResponse, error) {
	args := m.Called(ctx, accountID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.TransitionResponse), args.Error(1)
}

func (m *MockDocumentService) RecordSubmission(ctx context.Context, accountID, docID uuid.UUID, req invoicingapp.SubmissionResultRequest) (*invoicingapp.SubmissionResponse, error) {
	args := m.Called(ctx, accountID, docID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.SubmissionResponse), args.Error(1)
}

func (m *MockDocumentService) CanShareCreditNote(ctx context.Context, accountID, docID uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID, docID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentService) NextIdentifier(ctx context.Context, accountID uuid.UUID, docType string, date time.Time) (string, error) {
	args := m.Called(ctx, accountID, docType, date)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Stats(ctx context.Context, accountID uuid.UUID) (*invoicingapp.StatsResponse, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.StatsResponse), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, accountID, docID uuid.UUID) (*invoicingapp.DocumentResponse, error) {
	args := m.Called(ctx, accountID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) GetByUID(ctx context.Context, accountID uuid.UUID, uid string) (*invoicingapp.DocumentResponse, error) {
	args := m.Called(ctx, accountID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) History(ctx context.Context, accountID, docID uuid.UUID) ([]invoicingapp.HistoryResponse, error) {
	args := m.Called(ctx, accountID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicingapp.HistoryResponse), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, accountID uuid.UUID, filter invoicingapp.DocumentListFilter) ([]invoicingapp.DocumentResponse, int64, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]invoicingapp.DocumentResponse), args.Get(1).(int64), args.Error(2)
}

type MockQRRenderer struct {
	mock.Mock
}

func (m *MockQRRenderer) RenderPNG(payload string) ([]byte, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockQRRenderer) RenderDataURI(payload string) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}

// =============================================================================
// Mock Subscription Service
// =============================================================================

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) EvaluateEntitlement(ctx context.Context, userID uuid.UUID) (*subscriptionapp.EntitlementResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.EntitlementResponse), args.Error(1)
}

func (m *MockSubscriptionService) EvaluateCanPay(ctx context.Context, userID uuid.UUID) (*subscriptionapp.EntitlementResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.EntitlementResponse), args.Error(1)
}

func (m *MockSubscriptionService) CreatePayment(ctx context.Context, userID uuid.UUID, req subscriptionapp.CreatePaymentRequest) (*subscriptionapp.RecordResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.RecordResponse), args.Error(1)
}

func (m *MockSubscriptionService) ApplyCompletedPayment(ctx context.Context, recordID uuid.UUID) (*subscriptionapp.RecordResponse, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.RecordResponse), args.Error(1)
}

func (m *MockSubscriptionService) HandlePaymentCallback(ctx context.Context, req subscriptionapp.PaymentCallbackRequest) (*subscriptionapp.CallbackResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.CallbackResponse), args.Error(1)
}

func (m *MockSubscriptionService) ListRecords(ctx context.Context, userID uuid.UUID) ([]subscriptionapp.RecordResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscriptionapp.RecordResponse), args.Error(1)
}

func (m *MockSubscriptionService) ListPackages(ctx context.Context) ([]subscriptionapp.PackageResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscriptionapp.PackageResponse), args.Error(1)
}

func (m *MockSubscriptionService) CreatePackage(ctx context.Context, req subscriptionapp.CreatePackageRequest) (*subscriptionapp.PackageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionapp.PackageResponse), args.Error(1)
}

// =============================================================================
// Mock Account Service
// =============================================================================

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, userID uuid.UUID) (*accountapp.AccountResponse, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*accountapp.AccountResponse), args.Bool(1), args.Error(2)
}

func (m *MockAccountService) Get(ctx context.Context, accountID uuid.UUID) (*accountapp.AccountResponse, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountapp.AccountResponse), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, req accountapp.UpdateProfileRequest) (*accountapp.AccountResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountapp.AccountResponse), args.Error(1)
}

func (m *MockAccountService) ConfigureFiscal(ctx context.Context, accountID uuid.UUID) (*accountapp.AccountResponse, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountapp.AccountResponse), args.Error(1)
}

func (m *MockAccountService) AddCatalogEntry(ctx context.Context, accountID uuid.UUID, req accountapp.CreateCatalogEntryRequest) (*accountapp.CatalogEntryResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountapp.CatalogEntryResponse), args.Error(1)
}

func (m *MockAccountService) AddCustomer(ctx context.Context, accountID uuid.UUID, req accountapp.CreateCustomerRequest) (*accountapp.CustomerResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountapp.CustomerResponse), args.Error(1)
}
