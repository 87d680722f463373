// Package account exposes onboarding of issuing accounts, their catalog and
// customer address book.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// UpdateProfileRequest represents the editable seller settings
type UpdateProfileRequest struct {
	Organization   string `json:"organization" binding:"required,max=200"`
	RegisterNumber string `json:"register_number" binding:"required,max=50"`
	TaxNumber      string `json:"tax_number" binding:"required,len=15,numeric"`
	City           string `json:"city" binding:"required,max=100"`
	Street         string `json:"street" binding:"required,max=200"`
	Phone          string `json:"phone" binding:"required,max=30"`
	Taxable        bool   `json:"taxable"`
}

// CreateCatalogEntryRequest represents a new priced product
type CreateCatalogEntryRequest struct {
	Name  string          `json:"name" binding:"required,max=200"`
	Price decimal.Decimal `json:"price" binding:"required"`
}

// CreateCustomerRequest represents a new address book entry
type CreateCustomerRequest struct {
	Organization   string `json:"organization" binding:"required,max=200"`
	TaxNumber      string `json:"tax_number" binding:"omitempty,len=15,numeric"`
	City           string `json:"city" binding:"max=100"`
	Street         string `json:"street" binding:"max=200"`
	Phone          string `json:"phone" binding:"max=30"`
	Email          string `json:"email" binding:"omitempty,email"`
	BuildingNumber string `json:"building_number" binding:"omitempty,len=4,numeric"`
	PostalZone     string `json:"postal_zone" binding:"omitempty,len=5,numeric"`
	DistrictName   string `json:"district_name" binding:"max=100"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                         uuid.UUID  `json:"id"`
	UserID                     uuid.UUID  `json:"user_id"`
	JoinedAt                   time.Time  `json:"joined_at"`
	Organization               string     `json:"organization"`
	RegisterNumber             string     `json:"register_number"`
	TaxNumber                  string     `json:"tax_number"`
	Country                    string     `json:"country"`
	City                       string     `json:"city"`
	Street                     string     `json:"street"`
	Phone                      string     `json:"phone"`
	Taxable                    bool       `json:"taxable"`
	VAT                        string     `json:"vat"`
	ProfileComplete            bool       `json:"profile_complete"`
	RequiresFiscalConfirmation bool       `json:"requires_fiscal_confirmation"`
	FiscalConfigUpdatedAt      *time.Time `json:"fiscal_config_updated_at,omitempty"`
}

// CatalogEntryResponse represents a catalog entry in API responses
type CatalogEntryResponse struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID uuid.UUID `json:"id"`
	account.CustomerSnapshot
}

// ToAccountResponse converts a domain account to a response DTO
func ToAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:                         a.ID,
		UserID:                     a.UserID,
		JoinedAt:                   a.JoinedAt,
		Organization:               a.Organization,
		RegisterNumber:             a.RegisterNumber,
		TaxNumber:                  a.TaxNumber,
		Country:                    a.Country,
		City:                       a.City,
		Street:                     a.Street,
		Phone:                      a.Phone,
		Taxable:                    a.Taxable,
		VAT:                        a.VATRate.String(),
		ProfileComplete:            a.ProfileComplete(),
		RequiresFiscalConfirmation: a.RequiresFiscalConfirmation,
		FiscalConfigUpdatedAt:      a.FiscalConfigUpdatedAt,
	}
}

// AccountServiceConfig groups the dependencies of AccountService
type AccountServiceConfig struct {
	Accounts   account.AccountRepository
	Catalog    account.CatalogRepository
	Customers  account.CustomerRepository
	Transactor shared.AccountTransactor
	Policy     valueobject.VATPolicy
	Clock      shared.Clock
	Logger     *zap.Logger
}

// AccountService handles account onboarding and address book writes
type AccountService struct {
	accounts  account.AccountRepository
	catalog   account.CatalogRepository
	customers account.CustomerRepository
	tx        shared.AccountTransactor
	policy    valueobject.VATPolicy
	clock     shared.Clock
	logger    *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	if cfg.Clock == nil {
		cfg.Clock = shared.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Policy == (valueobject.VATPolicy{}) {
		cfg.Policy = valueobject.DefaultVATPolicy()
	}
	return &AccountService{
		accounts:  cfg.Accounts,
		catalog:   cfg.Catalog,
		customers: cfg.Customers,
		tx:        cfg.Transactor,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
}

// Register returns the user's account, creating it on first use. The join
// date of a new account starts the free trial.
func (s *AccountService) Register(ctx context.Context, userID uuid.UUID) (*AccountResponse, bool, error) {
	acc, err := s.accounts.FindByUserID(ctx, userID)
	if err == nil {
		resp := ToAccountResponse(acc)
		return &resp, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	acc = account.NewAccount(userID, s.clock.Now(), s.policy)
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, false, err
	}
	s.logger.Info("account registered",
		zap.String("account_id", acc.ID.String()),
		zap.String("user_id", userID.String()))

	resp := ToAccountResponse(acc)
	return &resp, true, nil
}

// ResolveAccountID returns the ID of the user's account
func (s *AccountService) ResolveAccountID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	acc, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return acc.ID, nil
}

// Get returns an account by ID
func (s *AccountService) Get(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(acc)
	return &resp, nil
}

// UpdateProfile applies seller settings. The VAT rate follows the taxable flag.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (*AccountResponse, error) {
	var acc *account.Account
	err := s.tx.WithinAccount(ctx, accountID, func(ctx context.Context) error {
		var err error
		if acc, err = s.accounts.FindByID(ctx, accountID); err != nil {
			return err
		}
		if err := acc.UpdateProfile(account.ProfileUpdate{
			Organization:   req.Organization,
			RegisterNumber: req.RegisterNumber,
			TaxNumber:      req.TaxNumber,
			City:           req.City,
			Street:         req.Street,
			Phone:          req.Phone,
			Taxable:        req.Taxable,
		}, s.policy, s.clock.Now()); err != nil {
			return err
		}
		return s.accounts.Save(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(acc)
	return &resp, nil
}

// ConfigureFiscal records tax-authority onboarding. Credit notes submitted
// before this moment can no longer be shared.
func (s *AccountService) ConfigureFiscal(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	var acc *account.Account
	err := s.tx.WithinAccount(ctx, accountID, func(ctx context.Context) error {
		var err error
		if acc, err = s.accounts.FindByID(ctx, accountID); err != nil {
			return err
		}
		acc.ConfigureFiscal(s.clock.Now())
		return s.accounts.Save(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fiscal configuration updated", zap.String("account_id", accountID.String()))
	resp := ToAccountResponse(acc)
	return &resp, nil
}

// AddCatalogEntry adds a priced product to the account's catalog
func (s *AccountService) AddCatalogEntry(ctx context.Context, accountID uuid.UUID, req CreateCatalogEntryRequest) (*CatalogEntryResponse, error) {
	entry, err := account.NewCatalogEntry(accountID, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Save(ctx, entry); err != nil {
		return nil, err
	}
	return &CatalogEntryResponse{ID: entry.ID, Name: entry.Name, Price: entry.Price}, nil
}

// AddCustomer adds a buyer to the account's address book
func (s *AccountService) AddCustomer(ctx context.Context, accountID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	c := &account.Customer{
		ID:             uuid.New(),
		AccountID:      accountID,
		Organization:   req.Organization,
		TaxNumber:      req.TaxNumber,
		City:           req.City,
		Street:         req.Street,
		Phone:          req.Phone,
		Email:          req.Email,
		BuildingNumber: req.BuildingNumber,
		PostalZone:     req.PostalZone,
		DistrictName:   req.DistrictName,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, err
	}
	return &CustomerResponse{ID: c.ID, CustomerSnapshot: c.Snapshot()}, nil
}
