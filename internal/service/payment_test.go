package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

type failingGateway struct{}

func (failingGateway) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error) {
	return "", errors.New("card declined")
}

// stallingGateway never answers on its own; it only returns when ctx ends.
type stallingGateway struct{}

func (stallingGateway) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPaymentService_SlowGatewayIsCutOffAndReleasesRide(t *testing.T) {
	f := newFixture(t, FixedDistanceProvider(3), stallingGateway{})
	f.payments.gatewayTimeout = 20 * time.Millisecond
	ctx := context.Background()
	ride := f.completedRide(t)

	start := time.Now()
	_, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "ONLINE"})
	require.ErrorIs(t, err, ErrGateway)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	stored, err := f.store.Rides().GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.False(t, stored.FarePaid)

	// The ride is not left locked: a cash payment goes through afterwards.
	result, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
}

func TestPaymentService_PayCash(t *testing.T) {
	f := newFixture(t, FixedDistanceProvider(3), nil)
	ctx := context.Background()
	ride := f.completedRide(t)

	result, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CASH"})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, domain.PaymentMethodCash, result.Payment.Method)
	assert.True(t, strings.HasPrefix(result.Payment.TransactionID, "CASH_"))
	assert.Equal(t, 110.0, result.Payment.Amount)

	require.NotNil(t, result.Receipt)
	assert.Equal(t, 50.0, result.Receipt.BaseFare)
	assert.Equal(t, 60.0, result.Receipt.DistanceCharge)
	assert.Equal(t, 110.0, result.Receipt.TotalFare)

	stored, err := f.store.Rides().GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.True(t, stored.FarePaid)

	payments, err := f.payments.PaymentsForRide(ctx, "alice", ride.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusCompleted, payments[0].Status)
}

func TestPaymentService_PayCardUsesGateway(t *testing.T) {
	f := newFixture(t, nil, nil)
	ride := f.completedRide(t)

	result, err := f.payments.Pay(context.Background(), PayRequest{Payer: "alice", RideID: ride.ID, Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCard, result.Payment.Method)
	assert.True(t, strings.HasPrefix(result.Payment.TransactionID, "TRX_"))
}

func TestPaymentService_PayPreconditions(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	requested, err := f.rides.Book(ctx, BookRequest{Rider: "alice", PickupLocation: "X", DropLocation: "Y"})
	require.NoError(t, err)
	completed := f.completedRide(t)

	tests := []struct {
		name string
		req  PayRequest
		want error
	}{
		{"unknown ride", PayRequest{Payer: "alice", RideID: "missing", Method: "CASH"}, ErrNotFound},
		{"not the rider", PayRequest{Payer: "mallory", RideID: completed.ID, Method: "CASH"}, ErrUnauthorized},
		{"not completed", PayRequest{Payer: "alice", RideID: requested.ID, Method: "CASH"}, ErrInvalidState},
		{"bad method", PayRequest{Payer: "alice", RideID: completed.ID, Method: "BITCOIN"}, ErrValidation},
		{"missing ride id", PayRequest{Payer: "alice", Method: "CASH"}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.Pay(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	payments, err := f.payments.PaymentsForRide(ctx, "alice", completed.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPaymentService_PayTwice(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	ride := f.completedRide(t)

	_, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CASH"})
	require.NoError(t, err)

	_, err = f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "ONLINE"})
	assert.ErrorIs(t, err, ErrRideAlreadyPaid)
}

func TestPaymentService_ConcurrentPayCreatesOnePayment(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	ride := f.completedRide(t)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CARD"}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	payments, err := f.payments.PaymentsForRide(ctx, "alice", ride.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusCompleted, payments[0].Status)
}

func TestPaymentService_GatewayFailureRollsBack(t *testing.T) {
	f := newFixture(t, nil, failingGateway{})
	ctx := context.Background()
	ride := f.completedRide(t)

	_, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CARD"})
	require.ErrorIs(t, err, ErrGateway)

	stored, err := f.store.Rides().GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.False(t, stored.FarePaid)

	payments, err := f.payments.PaymentsForRide(ctx, "alice", ride.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusFailed, payments[0].Status)
	assert.Contains(t, f.publisher.types(), domain.EventPaymentFailed)

	// Cash does not touch the gateway.
	result, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
}

func TestPaymentService_GetPayment(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	ride := f.completedRide(t)

	result, err := f.payments.Pay(ctx, PayRequest{Payer: "alice", RideID: ride.ID, Method: "CASH"})
	require.NoError(t, err)

	got, err := f.payments.GetPayment(ctx, "alice", domain.RoleRider, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Payment.TransactionID, got.TransactionID)

	_, err = f.payments.GetPayment(ctx, "mallory", domain.RoleRider, result.Payment.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.payments.GetPayment(ctx, "root", domain.RoleAdmin, result.Payment.ID)
	assert.NoError(t, err)

	_, err = f.payments.GetPayment(ctx, "alice", domain.RoleRider, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
