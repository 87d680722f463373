package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides identity and audit timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with a generated ID.
// Time comes from the caller's clock so tests can pin it.
func NewBaseEntity(now time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BaseAggregateRoot adds an optimistic-locking version and a queue of
// domain events published after commit
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates a new base aggregate root stamped at the given time
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(now),
		Version:    1,
	}
}

// Touch records a modification at the given instant and bumps the version
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}

// AddDomainEvent queues a domain event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// AccountAggregateRoot is an aggregate owned by a single business account.
// All writes to such an aggregate are serialized per account.
type AccountAggregateRoot struct {
	BaseAggregateRoot
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewAccountAggregateRoot creates a new account-scoped aggregate root
func NewAccountAggregateRoot(accountID uuid.UUID, now time.Time) AccountAggregateRoot {
	return AccountAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(now),
		AccountID:         accountID,
	}
}
