package account

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fatoora/backend/internal/domain/shared"
)

// Customer is a buyer kept in an account's address book. Documents never
// reference it directly for fiscal data; they copy a CustomerSnapshot.
type Customer struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Organization   string
	TaxNumber      string
	City           string
	Street         string
	Phone          string
	Email          string
	BuildingNumber string
	PostalZone     string
	DistrictName   string
}

// Validate checks a customer before it is saved or snapshotted. A VAT
// registered customer must carry a street and a city.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return shared.NewValidationError("INVALID_CUSTOMER", "organization", "organization cannot be empty")
	}
	if c.TaxNumber != "" {
		if err := ValidateTaxNumber("customer.tax_number", c.TaxNumber); err != nil {
			return err
		}
		if strings.TrimSpace(c.Street) == "" {
			return shared.NewValidationError("CUSTOMER_INFO_REQUIRED", "customer.street",
				"street is required for a customer with a tax number")
		}
		if strings.TrimSpace(c.City) == "" {
			return shared.NewValidationError("CUSTOMER_INFO_REQUIRED", "customer.city",
				"city is required for a customer with a tax number")
		}
	}
	if c.BuildingNumber != "" {
		if err := validateDigits("customer.building_number", c.BuildingNumber, 4); err != nil {
			return err
		}
	}
	if c.PostalZone != "" {
		if err := validateDigits("customer.postal_zone", c.PostalZone, 5); err != nil {
			return err
		}
	}
	return nil
}

// HasTaxNumber reports whether the customer is VAT registered
func (c *Customer) HasTaxNumber() bool {
	return c.TaxNumber != ""
}

// Snapshot freezes the customer's fiscal data for a document
func (c *Customer) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{
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

// CustomerSnapshot is the customer data captured when a document is saved.
// Later edits or deletion of the Customer do not affect it.
type CustomerSnapshot struct {
	Organization   string `json:"organization"`
	TaxNumber      string `json:"tax_number,omitempty"`
	City           string `json:"city,omitempty"`
	Street         string `json:"street,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	BuildingNumber string `json:"building_number,omitempty"`
	PostalZone     string `json:"postal_zone,omitempty"`
	DistrictName   string `json:"district_name,omitempty"`
}
