package shared

import (
	"context"

	"github.com/google/uuid"
)

// AccountTransactor runs fn inside a serializable transaction that holds the
// account's row lock. Repositories called with the ctx passed to fn join that
// transaction. A lost serialization race surfaces as a ConflictError and
// nothing inside fn is committed.
type AccountTransactor interface {
	WithinAccount(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error
}

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "issued_at",
		OrderDir: "desc",
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// AccountLocker serializes critical sections per account across processes.
// It complements AccountTransactor; the database lock stays authoritative.
type AccountLocker interface {
	WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error
}
