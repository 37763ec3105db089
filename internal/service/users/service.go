package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

var (
	ErrDuplicateUser = errors.New("user with this email already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidUser   = errors.New("name and email are required")
)

type Repo interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Register creates a user keyed by normalized email.
//
// Returns:
//   - *domain.User: the registered user.
//   - error: users.ErrDuplicateUser if the email is already registered.
func (s *Service) Register(ctx context.Context, name, email string) (*domain.User, error) {
	const op = "service.users.Register"

	u := &domain.User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(name),
		Email: domain.NormalizeEmail(email),
	}

	if u.Name == "" || u.Email == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidUser)
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s:%w", op, ErrDuplicateUser)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "service.users.Get"

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "service.users.GetByEmail"

	u, err := s.repo.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}
