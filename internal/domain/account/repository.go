package account

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByUserID finds the account owned by a user
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error
}

// CatalogRepository reads and writes an account's products
type CatalogRepository interface {
	// FindByIDs returns the account's entries for the given IDs.
	// Missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) ([]CatalogEntry, error)

	// Save creates or updates a catalog entry
	Save(ctx context.Context, entry *CatalogEntry) error
}

// CustomerRepository reads and writes an account's customers
type CustomerRepository interface {
	// FindByID finds a customer of the account
	FindByID(ctx context.Context, accountID, id uuid.UUID) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
