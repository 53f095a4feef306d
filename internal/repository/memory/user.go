package memory

import (
	"context"
	"sort"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

type userRecord struct {
	seq  int64
	user domain.User
}

// UserRepository is an in-memory implementation of repository.UserRepository.
type UserRepository struct {
	s *Store
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.Username]; ok {
		return repository.ErrDuplicate
	}
	for _, rec := range r.s.users {
		if rec.user.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.Username] = &userRecord{seq: r.s.nextSeq(), user: *user}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := rec.user
	return &user, nil
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.users {
		if rec.user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ListPendingDrivers retrieves drivers waiting for approval, oldest first.
func (r *UserRepository) ListPendingDrivers(ctx context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*userRecord, 0)
	for _, rec := range r.s.users {
		if rec.user.Role == domain.RoleDriver && !rec.user.Approved {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	users := make([]*domain.User, 0, len(recs))
	for _, rec := range recs {
		user := rec.user
		users = append(users, &user)
	}
	return users, nil
}

// Approve marks a user as approved.
func (r *UserRepository) Approve(ctx context.Context, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	rec.user.Approved = true
	return nil
}
