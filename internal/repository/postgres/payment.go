package postgres

import (
	"context"
	"database/sql"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

const paymentColumns = `id, ride_id, amount, method, status, transaction_id, created_at`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, amount, method, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.Amount,
		payment.Method,
		payment.Status,
		nullString(payment.TransactionID),
		payment.CreatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// ListByRide retrieves every payment attempt for a ride.
func (r *PaymentRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1 ORDER BY created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, mapError(rows.Err())
}

// Settle stores the final status and transaction reference of a payment.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, transactionID string) error {
	query := `UPDATE payments SET status = $1, transaction_id = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, status, nullString(transactionID), id)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var transactionID sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&transactionID,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	payment.TransactionID = transactionID.String
	return &payment, nil
}
