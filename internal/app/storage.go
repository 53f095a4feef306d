package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cabbooking/internal/config"
	"cabbooking/internal/repository"
	"cabbooking/internal/repository/memory"
	"cabbooking/internal/repository/postgres"
)

// Storage bundles the repositories behind one backend.
type Storage struct {
	Rides    repository.RideRepository
	Payments repository.PaymentRepository
	Users    repository.UserRepository
	Tx       repository.Transactor
	close    func() error
}

// Close releases the backend's resources.
func (s *Storage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// NewMemoryStorage returns a Storage backed by the in-process ledger.
func NewMemoryStorage() *Storage {
	store := memory.NewStore()
	return &Storage{
		Rides:    store.Rides(),
		Payments: store.Payments(),
		Users:    store.Users(),
		Tx:       store,
	}
}

// NewStorage opens the backend selected by cfg.Storage.
func NewStorage(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application) (*Storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StoragePostgres, "":
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Rides:    postgres.NewRideRepository(db),
			Payments: postgres.NewPaymentRepository(db),
			Users:    postgres.NewUserRepository(db),
			Tx:       postgres.NewTransactor(db),
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
}
