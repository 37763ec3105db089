package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

type UserRepo struct {
	s *Store
}

// CreateUser stores a new user keyed by email.
//
// Returns:
//   - error: repository.ErrConflict if the email is already registered.
func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	const op = "memory.UserRepo.CreateUser"

	r.s.usersMu.Lock()
	defer r.s.usersMu.Unlock()

	if _, ok := r.s.usersByEmail[u.Email]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
	}

	r.s.users[u.ID] = *u
	r.s.usersByEmail[u.Email] = u.ID

	return nil
}

func (r *UserRepo) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "memory.UserRepo.GetUser"

	r.s.usersMu.RLock()
	defer r.s.usersMu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return &u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "memory.UserRepo.GetUserByEmail"

	r.s.usersMu.RLock()
	defer r.s.usersMu.RUnlock()

	id, ok := r.s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	u := r.s.users[id]
	return &u, nil
}
