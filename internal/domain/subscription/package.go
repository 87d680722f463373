// Package subscription tracks paid subscription records and derives whether
// a user is entitled to use the service.
package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
)

// Package is a purchasable plan priced per month in SAR
type Package struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	FiscalRelated bool
	CreatedAt     time.Time
}

// NewPackage validates and creates a package
func NewPackage(name, description string, price decimal.Decimal, fiscalRelated bool, now time.Time) (*Package, error) {
	p := &Package{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(name),
		Description:   description,
		Price:         price,
		FiscalRelated: fiscalRelated,
		CreatedAt:     now,
	}
	if p.Name == "" {
		return nil, shared.NewValidationError("INVALID_PACKAGE", "name", "package name cannot be empty")
	}
	if p.Price.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PACKAGE", "price", "package price cannot be negative")
	}
	if !valueobject.HasCurrencyScale(p.Price) {
		return nil, shared.NewValidationError("INVALID_AMOUNT_SCALE", "price",
			fmt.Sprintf("package price cannot have more than %d decimal places", valueobject.CurrencyScale))
	}
	return p, nil
}
