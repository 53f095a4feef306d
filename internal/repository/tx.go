package repository

import "context"

// TxFunc runs against repositories bound to one transaction.
type TxFunc func(rides RideRepository, payments PaymentRepository) error

// Transactor runs fn in a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
