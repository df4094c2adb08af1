package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user_email:"
)

// UserStore implements repositories.UserRepository over a KeyValueStore.
// A user record is stored under its id with a secondary email index.
type UserStore struct {
	store providers.KeyValueStore
	mu    sync.Mutex
}

// NewUserStore creates a new user store
func NewUserStore(store providers.KeyValueStore) repositories.UserRepository {
	return &UserStore{store: store}
}

func emailKey(email string) string {
	return userEmailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Create creates a new user
func (s *UserStore) Create(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing string
	found, err := getJSON(ctx, s.store, emailKey(user.Email), &existing)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if found {
		return apperrors.NewConflictError("user already exists")
	}

	if err := setJSON(ctx, s.store, userKeyPrefix+user.ID, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if err := setJSON(ctx, s.store, emailKey(user.Email), user.ID); err != nil {
		return fmt.Errorf("failed to index user email: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	found, err := getJSON(ctx, s.store, userKeyPrefix+id, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var id string
	found, err := getJSON(ctx, s.store, emailKey(email), &id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return s.GetByID(ctx, id)
}

// Update updates a user
func (s *UserStore) Update(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetByID(ctx, user.ID); err != nil {
		return err
	}
	if err := setJSON(ctx, s.store, userKeyPrefix+user.ID, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete deletes a user and its email index
func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.GetByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.Delete(ctx, emailKey(user.Email)); err != nil {
		return fmt.Errorf("failed to delete user email index: %w", err)
	}
	if err := s.store.Delete(ctx, userKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
