package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const sessionKeyPrefix = "session:"

// Session is the result of signing in.
type Session struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// UserService handles sign-in and the saved establishment list.
type UserService struct {
	users    repositories.UserRepository
	sessions providers.KeyValueStore
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, sessions providers.KeyValueStore) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		now:      time.Now,
	}
}

// SignIn returns a new session for the email, creating the user on first
// sign-in.
func (s *UserService) SignIn(ctx context.Context, email string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return nil, apperrors.NewValidationError("a valid email address is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.ErrorTypeNotFound):
		user = &entities.User{
			ID:                  "user_" + uuid.NewString(),
			Email:               email,
			DisplayName:         local,
			SavedEstablishments: []string{},
			CreatedAt:           s.now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("created user")
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token := "token_" + uuid.NewString()
	if err := s.sessions.Set(ctx, sessionKeyPrefix+token, []byte(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// SignOut ends the session and destroys the user record along with its
// saved list. Other sessions of the same user stop resolving. Unknown
// tokens are ignored.
func (s *UserService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := sessionKeyPrefix + token
	id, err := s.sessions.Get(ctx, key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if err := s.users.Delete(ctx, string(id)); err != nil && !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return s.sessions.Delete(ctx, key)
}

// Current returns the signed-in user for token.
func (s *UserService) Current(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("sign in required")
	}
	id, err := s.sessions.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return nil, apperrors.NewUnauthorizedError("session expired or unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	user, err := s.users.GetByID(ctx, string(id))
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, apperrors.NewUnauthorizedError("session user no longer exists")
	}
	return user, err
}

// Save adds the establishment to the saved list. Saving twice is a no-op.
func (s *UserService) Save(ctx context.Context, token, establishmentID string) (*entities.User, error) {
	return s.mutateSaved(ctx, token, establishmentID, func(u *entities.User) bool {
		return u.AddSaved(establishmentID)
	})
}

// Unsave removes the establishment from the saved list.
func (s *UserService) Unsave(ctx context.Context, token, establishmentID string) (*entities.User, error) {
	return s.mutateSaved(ctx, token, establishmentID, func(u *entities.User) bool {
		return u.RemoveSaved(establishmentID)
	})
}

// Toggle flips the saved state and returns the new state.
func (s *UserService) Toggle(ctx context.Context, token, establishmentID string) (bool, error) {
	var saved bool
	_, err := s.mutateSaved(ctx, token, establishmentID, func(u *entities.User) bool {
		if u.HasSaved(establishmentID) {
			u.RemoveSaved(establishmentID)
			saved = false
		} else {
			u.AddSaved(establishmentID)
			saved = true
		}
		return true
	})
	return saved, err
}

// IsSaved reports whether the signed-in user saved the establishment.
func (s *UserService) IsSaved(ctx context.Context, token, establishmentID string) (bool, error) {
	user, err := s.Current(ctx, token)
	if err != nil {
		return false, err
	}
	return user.HasSaved(establishmentID), nil
}

// SavedList returns the saved establishment ids in the order they were saved.
func (s *UserService) SavedList(ctx context.Context, token string) ([]string, error) {
	user, err := s.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(user.SavedEstablishments))
	copy(out, user.SavedEstablishments)
	return out, nil
}

func (s *UserService) mutateSaved(ctx context.Context, token, establishmentID string, mutate func(*entities.User) bool) (*entities.User, error) {
	if strings.TrimSpace(establishmentID) == "" {
		return nil, apperrors.NewValidationError("establishment id is required")
	}
	user, err := s.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	if !mutate(user) {
		return user, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update saved list: %w", err)
	}
	return user, nil
}
