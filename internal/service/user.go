package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

const minPasswordLength = 6

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(username string, role domain.Role) (string, time.Time, error)
}

// Identity is the view of a user the ride lifecycle relies on.
type Identity struct {
	Username string
	Role     domain.Role
	Approved bool
}

// UserOptions controls account approval at registration.
type UserOptions struct {
	// AutoApproveDrivers lets drivers log in without an administrator's approval.
	AutoApproveDrivers bool
	// AllowAdminRegistration lets the public register endpoint create ADMIN accounts.
	AllowAdminRegistration bool
}

// UserService handles registration, login and driver approval.
type UserService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	opts     UserOptions
	validate *validator.Validate
	hashCost           int
	logger             *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer, opts UserOptions, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		opts:     opts,
		validate: validator.New(),
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// RegisterRequest contains the parameters for registering a user.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a new user. Drivers start unapproved unless the service
// is configured to approve them automatically; ADMIN accounts can only be
// registered when AllowAdminRegistration is set.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleAdmin && !s.opts.AllowAdminRegistration {
		return nil, ErrAdminRegistrationClosed
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Approved:     req.Role != domain.RoleDriver || s.opts.AutoApproveDrivers,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.Bool("approved", user.Approved),
	)
	return user, nil
}

func (s *UserService) validateRegistration(req RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return fmt.Errorf("%w: username, email, password and role are required", ErrValidation)
	}
	if err := s.validate.Var(req.Email, "email"); err != nil {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	switch req.Role {
	case domain.RoleRider, domain.RoleDriver, domain.RoleAdmin:
	default:
		return fmt.Errorf("%w: role must be RIDER, DRIVER or ADMIN", ErrValidation)
	}
	return validatePassword(req.Password)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !digit {
		return fmt.Errorf("%w: password must contain an uppercase letter and a digit", ErrValidation)
	}
	return nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	Role      domain.Role
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.CanLogin() {
		return nil, ErrDriverNotApproved
	}

	token, expiresAt, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

// Resolve looks up the identity behind a username.
func (s *UserService) Resolve(ctx context.Context, username string) (*Identity, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Identity{Username: user.Username, Role: user.Role, Approved: user.Approved}, nil
}

// PendingDrivers lists drivers waiting for approval.
func (s *UserService) PendingDrivers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListPendingDrivers(ctx)
}

// ApproveDriver approves a pending driver account.
func (s *UserService) ApproveDriver(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != domain.RoleDriver {
		return nil, fmt.Errorf("%w: %s is not a driver", ErrValidation, username)
	}

	if err := s.userRepo.Approve(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Approved = true
	s.logger.Info("driver approved", zap.String("username", username))
	return user, nil
}
