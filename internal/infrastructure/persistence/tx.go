package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/persistence/models"
)

type txKey struct{}

// Postgres SQLSTATEs that mean a concurrent writer won
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// conn returns the transaction carried by ctx, or db bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// TxManager implements shared.AccountTransactor with GORM transactions
type TxManager struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewTxManager creates a TxManager. Postgres transactions are serializable;
// other dialects use their default level.
func NewTxManager(db *gorm.DB) *TxManager {
	isolation := sql.LevelDefault
	if db.Dialector.Name() == "postgres" {
		isolation = sql.LevelSerializable
	}
	return &TxManager{db: db, isolation: isolation}
}

// WithinAccount runs fn in a transaction holding the account row lock
// (SELECT ... FOR UPDATE). A nested call joins the outer transaction.
func (m *TxManager) WithinAccount(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.AccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", accountID).
			Take(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: m.isolation})
	return translateError(err)
}

// translateError maps lost races to a ConflictError and leaves other errors unchanged
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return shared.NewConflictError("CONCURRENT_MODIFICATION",
				"the account was modified concurrently, retry the operation")
		}
	}
	return err
}

var _ shared.AccountTransactor = (*TxManager)(nil)
