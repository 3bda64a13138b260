package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	// bcrypt only looks at the first 72 bytes.
	maxPasswordBytes = 72
)

// ErrUserAlreadyExists is returned when attempting to register with an existing username.
var ErrUserAlreadyExists = fmt.Errorf("user already exists: %w", domain.ErrConflict)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	// Verify returns the user when the credentials match and nil otherwise.
	// An unknown username and a wrong password look the same to the caller.
	Verify(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users     repository.UserRepository
	cost      int
	dummyHash []byte
}

func NewUserService(users repository.UserRepository, bcryptCost int) (UserService, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// compared against on unknown usernames so both paths cost one bcrypt run
	dummy, err := bcrypt.GenerateFromPassword([]byte("browser-sync-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &userService{
		users:     users,
		cost:      bcryptCost,
		dummyHash: dummy,
	}, nil
}

func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, domain.NewValidationError("username", "must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, domain.NewValidationError("password", "must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.NewValidationError("password", "must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
