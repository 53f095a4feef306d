package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cabbooking/internal/domain"
	"cabbooking/internal/observability"
	"cabbooking/internal/repository"
)

// DefaultGatewayTimeout bounds a single Charge call.
const DefaultGatewayTimeout = 10 * time.Second

// PaymentGateway settles non-cash payments. Charge runs inside the settlement
// transaction while the ride row is locked, so implementations must return
// promptly once ctx is done; the service gives each call a deadline.
type PaymentGateway interface {
	Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error)
}

// MockGateway is a PaymentGateway that approves every charge.
type MockGateway struct{}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Charge simulates a successful charge and returns a transaction id.
func (g *MockGateway) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error) {
	return "TRX_" + uuid.New().String(), nil
}

// PaymentService settles completed rides.
type PaymentService struct {
	tx                  repository.Transactor
	rideRepo            repository.RideRepository
	paymentRepo         repository.PaymentRepository
	gateway             PaymentGateway
	gatewayTimeout      time.Duration
	receiptService      *ReceiptService
	notificationService *NotificationService
	logger              *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	tx repository.Transactor,
	rideRepo repository.RideRepository,
	paymentRepo repository.PaymentRepository,
	gateway PaymentGateway,
	receiptService *ReceiptService,
	notificationService *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	if gateway == nil {
		gateway = NewMockGateway()
	}
	if receiptService == nil {
		receiptService = NewReceiptService()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		tx:                  tx,
		rideRepo:            rideRepo,
		paymentRepo:         paymentRepo,
		gateway:             gateway,
		gatewayTimeout:      DefaultGatewayTimeout,
		receiptService:      receiptService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// PayRequest contains the parameters for paying a ride.
type PayRequest struct {
	Payer  string
	RideID string
	Method string
}

// PayResult is the settled payment and its receipt.
type PayResult struct {
	Payment *domain.Payment
	Receipt *domain.Receipt
}

// ParsePaymentMethod validates a payment method name, ignoring case.
func ParsePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch m := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(method))); m {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodOnline:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Pay settles a completed ride for its rider. The payment record and the
// ride's paid flag are written in one transaction. A declined charge leaves
// the ride unpaid and records a FAILED payment.
func (s *PaymentService) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	method, err := ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	var (
		ride       *domain.Ride
		payment    *domain.Payment
		gatewayErr error
	)

	err = s.tx.WithinTx(ctx, func(rides repository.RideRepository, payments repository.PaymentRepository) error {
		var err error
		ride, err = rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRideNotFound
			}
			return err
		}

		if ride.RiderUsername != req.Payer {
			return ErrNotRideRider
		}
		if ride.Status != domain.RideStatusCompleted {
			return ErrRideNotCompleted
		}
		if ride.FarePaid {
			return ErrRideAlreadyPaid
		}

		payment = &domain.Payment{
			ID:        uuid.New().String(),
			RideID:    ride.ID,
			Amount:    fareOf(ride),
			Method:    method,
			Status:    domain.PaymentStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := payments.Create(ctx, payment); err != nil {
			return err
		}

		transactionID, err := s.settle(ctx, payment)
		if err != nil {
			gatewayErr = err
			return err
		}

		if err := payments.Settle(ctx, payment.ID, domain.PaymentStatusCompleted, transactionID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrRideAlreadyPaid
			}
			return err
		}
		payment.Status = domain.PaymentStatusCompleted
		payment.TransactionID = transactionID

		if err := rides.MarkPaid(ctx, ride.ID, req.Payer); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRideAlreadyPaid
			}
			return err
		}
		ride.FarePaid = true
		return nil
	})

	if gatewayErr != nil {
		return nil, s.recordFailure(ctx, ride, payment, gatewayErr)
	}
	if err != nil {
		observability.Payments.WithLabelValues(string(method), "rejected").Inc()
		return nil, err
	}

	observability.Payments.WithLabelValues(string(method), "ok").Inc()
	s.logger.Info("payment completed",
		zap.String("ride_id", ride.ID),
		zap.String("payment_id", payment.ID),
		zap.String("method", string(method)),
		zap.Float64("amount", payment.Amount),
	)
	s.notificationService.PaymentCompleted(ctx, ride, payment)

	return &PayResult{
		Payment: payment,
		Receipt: s.receiptService.GenerateReceipt(ride, payment),
	}, nil
}

// settle returns the transaction id for a payment. Cash is settled locally.
func (s *PaymentService) settle(ctx context.Context, payment *domain.Payment) (string, error) {
	if payment.Method == domain.PaymentMethodCash {
		return "CASH_" + strconv.FormatInt(time.Now().UnixMilli(), 10), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.Charge(ctx, payment.Amount, payment.Method)
}

// recordFailure stores a FAILED attempt after the settlement transaction
// was rolled back, and returns the error reported to the caller.
func (s *PaymentService) recordFailure(ctx context.Context, ride *domain.Ride, attempt *domain.Payment, cause error) error {
	observability.Payments.WithLabelValues(string(attempt.Method), "failed").Inc()

	failed := *attempt
	failed.Status = domain.PaymentStatusFailed
	if err := s.paymentRepo.Create(ctx, &failed); err != nil {
		s.logger.Error("record failed payment", zap.String("ride_id", ride.ID), zap.Error(err))
	}

	s.logger.Warn("payment declined",
		zap.String("ride_id", ride.ID),
		zap.String("method", string(attempt.Method)),
		zap.Error(cause),
	)
	s.notificationService.PaymentFailed(ctx, ride, &failed)
	return fmt.Errorf("%w: %w", ErrGateway, cause)
}

// GetPayment returns a payment visible to the rider of its ride or an administrator.
func (s *PaymentService) GetPayment(ctx context.Context, actor string, role domain.Role, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if role == domain.RoleAdmin {
		return payment, nil
	}

	ride, err := s.rideRepo.GetByID(ctx, payment.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.RiderUsername != actor {
		return nil, ErrNotRideRider
	}
	return payment, nil
}

// PaymentsForRide lists every payment attempt on a ride owned by rider.
func (s *PaymentService) PaymentsForRide(ctx context.Context, rider, rideID string) ([]*domain.Payment, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.RiderUsername != rider {
		return nil, ErrNotRideRider
	}
	return s.paymentRepo.ListByRide(ctx, rideID)
}

func fareOf(ride *domain.Ride) float64 {
	if ride.Fare == nil {
		return 0
	}
	return *ride.Fare
}
