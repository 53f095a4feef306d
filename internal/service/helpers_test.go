package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository/memory"
)

type stubTokens struct{}

func (stubTokens) Issue(username string, role domain.Role) (string, time.Time, error) {
	return "token-" + username, time.Now().Add(time.Hour), nil
}

type recordingPublisher struct {
	events []domain.RideEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.RideEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	users     *UserService
	rides     *RideService
	payments  *PaymentService
	publisher *recordingPublisher
}

func newFixture(t *testing.T, distance DistanceProvider, gateway PaymentGateway) *fixture {
	t.Helper()

	store := memory.NewStore()
	publisher := &recordingPublisher{}
	notifications := NewNotificationService(publisher, nil)
	users := NewUserService(store.Users(), stubTokens{}, UserOptions{AllowAdminRegistration: true}, nil)
	users.hashCost = bcrypt.MinCost

	f := &fixture{
		store:     store,
		users:     users,
		rides:     NewRideService(store.Rides(), users, distance, notifications, nil),
		payments:  NewPaymentService(store, store.Rides(), store.Payments(), gateway, NewReceiptService(), notifications, nil),
		publisher: publisher,
	}

	f.register(t, "alice", domain.RoleRider)
	f.register(t, "mallory", domain.RoleRider)
	f.register(t, "bob", domain.RoleDriver)
	f.register(t, "carol", domain.RoleDriver)
	f.register(t, "root", domain.RoleAdmin)
	for _, driver := range []string{"bob", "carol"} {
		_, err := users.ApproveDriver(context.Background(), driver)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) register(t *testing.T, username string, role domain.Role) {
	t.Helper()
	_, err := f.users.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret1",
		Role:     role,
	})
	require.NoError(t, err)
}

// completedRide books, accepts and completes a ride for alice driven by bob.
func (f *fixture) completedRide(t *testing.T) *domain.Ride {
	t.Helper()
	ctx := context.Background()

	ride, err := f.rides.Book(ctx, BookRequest{Rider: "alice", PickupLocation: "X", DropLocation: "Y"})
	require.NoError(t, err)
	_, err = f.rides.Accept(ctx, "bob", ride.ID)
	require.NoError(t, err)
	ride, err = f.rides.Complete(ctx, "bob", ride.ID)
	require.NoError(t, err)
	return ride
}
