package subscription

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionRepository persists subscription records
type SubscriptionRepository interface {
	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// ListByUser returns the user's records ordered by creation time, oldest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)

	// Create inserts a new record
	Create(ctx context.Context, r *Record) error

	// UpdateStatus stores the status and note of a record
	UpdateStatus(ctx context.Context, r *Record) error

	// CompleteIfUnapplied stores status, amount, snapshot and expiration only
	// if the stored expiration is still unset. It returns false when another
	// writer applied the record first.
	CompleteIfUnapplied(ctx context.Context, r *Record) (bool, error)
}

// PackageRepository persists packages
type PackageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Package, error)
	List(ctx context.Context) ([]Package, error)
	Save(ctx context.Context, p *Package) error
}
