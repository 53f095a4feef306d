package memory

import (
	"context"
	"sort"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

type paymentRecord struct {
	seq     int64
	payment domain.Payment
}

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
type PaymentRepository struct {
	s    *Store
	undo *undoLog
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[payment.ID]; ok {
		return repository.ErrDuplicate
	}
	if payment.Status == domain.PaymentStatusCompleted && r.hasCompleted(payment.RideID, payment.ID) {
		return repository.ErrDuplicate
	}
	r.s.payments[payment.ID] = &paymentRecord{seq: r.s.nextSeq(), payment: *payment}
	r.undo.record(func() { delete(r.s.payments, payment.ID) })
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	payment := rec.payment
	return &payment, nil
}

// ListByRide retrieves every payment attempt for a ride.
func (r *PaymentRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*paymentRecord, 0)
	for _, rec := range r.s.payments {
		if rec.payment.RideID == rideID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	payments := make([]*domain.Payment, 0, len(recs))
	for _, rec := range recs {
		payment := rec.payment
		payments = append(payments, &payment)
	}
	return payments, nil
}

// Settle stores the final status and transaction reference of a payment.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, transactionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status == domain.PaymentStatusCompleted && r.hasCompleted(rec.payment.RideID, id) {
		return repository.ErrDuplicate
	}

	before := rec.payment
	rec.payment.Status = status
	rec.payment.TransactionID = transactionID
	r.undo.record(func() { rec.payment = before })
	return nil
}

// hasCompleted reports whether rideID has a completed payment other than
// exclude. Caller holds mu.
func (r *PaymentRepository) hasCompleted(rideID, exclude string) bool {
	for id, rec := range r.s.payments {
		if id != exclude && rec.payment.RideID == rideID && rec.payment.Status == domain.PaymentStatusCompleted {
			return true
		}
	}
	return false
}
