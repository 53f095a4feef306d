// Package memory provides in-process repositories with the same conditional
// semantics as the PostgreSQL ones. Used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"cabbooking/internal/repository"
)

// Store holds rides, payments and users behind a single mutex.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	seq      int64
	rides    map[string]*rideRecord
	payments map[string]*paymentRecord
	users    map[string]*userRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		rides:    make(map[string]*rideRecord),
		payments: make(map[string]*paymentRecord),
		users:    make(map[string]*userRecord),
	}
}

// Rides returns a ride repository backed by the store.
func (s *Store) Rides() *RideRepository {
	return &RideRepository{s: s}
}

// Payments returns a payment repository backed by the store.
func (s *Store) Payments() *PaymentRepository {
	return &PaymentRepository{s: s}
}

// Users returns a user repository backed by the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// WithinTx runs fn with repositories that journal their writes. Transactions
// are serialised; when fn fails every journaled write is undone in reverse order.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	log := &undoLog{}
	err := fn(&RideRepository{s: s, undo: log}, &PaymentRepository{s: s, undo: log})
	if err != nil {
		s.mu.Lock()
		log.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// nextSeq returns a monotonically increasing insertion number. Caller holds mu.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// undoLog collects compensating actions for writes made inside WithinTx.
// Actions run with the store mutex held.
type undoLog struct {
	actions []func()
}

func (l *undoLog) record(action func()) {
	if l == nil {
		return
	}
	l.actions = append(l.actions, action)
}

func (l *undoLog) rollback() {
	for i := len(l.actions) - 1; i >= 0; i-- {
		l.actions[i]()
	}
	l.actions = nil
}

// Ensure interfaces are satisfied.
var (
	_ repository.Transactor        = (*Store)(nil)
	_ repository.RideRepository    = (*RideRepository)(nil)
	_ repository.PaymentRepository = (*PaymentRepository)(nil)
	_ repository.UserRepository    = (*UserRepository)(nil)
)
