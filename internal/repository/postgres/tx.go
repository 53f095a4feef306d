package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cabbooking/internal/repository"
)

// Transactor is a PostgreSQL implementation of repository.Transactor.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new PostgreSQL transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn with repositories bound to a single transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(NewRideRepositoryWithTx(tx), NewPaymentRepositoryWithTx(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
