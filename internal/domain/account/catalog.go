package account

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// CatalogEntry is a priced product of an account. Price is in SAR before VAT.
type CatalogEntry struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	Price     decimal.Decimal
}

// NewCatalogEntry validates and creates a catalog entry
func NewCatalogEntry(accountID uuid.UUID, name string, price decimal.Decimal) (*CatalogEntry, error) {
	e := &CatalogEntry{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      strings.TrimSpace(name),
		Price:     price,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks name and price
func (e *CatalogEntry) Validate() error {
	if e.Name == "" {
		return shared.NewValidationError("INVALID_PRODUCT", "name", "product name cannot be empty")
	}
	if !e.Price.IsPositive() {
		return shared.NewValidationError("INVALID_PRICE", "price", "price must be greater than zero")
	}
	if !valueobject.HasCurrencyScale(e.Price) {
		return shared.NewValidationError("INVALID_AMOUNT_SCALE", "price",
			fmt.Sprintf("price cannot have more than %d decimal places", valueobject.CurrencyScale))
	}
	return nil
}
