package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const preferencesKeyPrefix = "prefs:"

// PreferenceService stores per-session UI flags.
type PreferenceService struct {
	store providers.KeyValueStore
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(store providers.KeyValueStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// Get returns the session's preferences, or the zero value when none were saved.
func (s *PreferenceService) Get(ctx context.Context, sessionID string) (*entities.Preferences, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.NewValidationError("session id is required")
	}
	raw, err := s.store.Get(ctx, preferencesKeyPrefix+sessionID)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return &entities.Preferences{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	var prefs entities.Preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return &entities.Preferences{}, nil
	}
	return &prefs, nil
}

// Set replaces the session's preferences.
func (s *PreferenceService) Set(ctx context.Context, sessionID string, prefs *entities.Preferences) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.NewValidationError("session id is required")
	}
	if prefs == nil {
		return apperrors.NewValidationError("preferences are required")
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, preferencesKeyPrefix+sessionID, raw)
}
