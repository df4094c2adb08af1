package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/domain/repositories"
)

const communityUpdatesKey = "community_updates"

// CommunityUpdateStore keeps every update in a single newest-first list
// under one key.
type CommunityUpdateStore struct {
	store providers.KeyValueStore
	mu    sync.Mutex
}

// NewCommunityUpdateStore creates a KV-backed community update repository
func NewCommunityUpdateStore(store providers.KeyValueStore) repositories.CommunityUpdateRepository {
	return &CommunityUpdateStore{store: store}
}

func (s *CommunityUpdateStore) load(ctx context.Context) ([]*entities.CommunityUpdate, error) {
	var updates []*entities.CommunityUpdate
	if _, err := getJSON(ctx, s.store, communityUpdatesKey, &updates); err != nil {
		return nil, fmt.Errorf("failed to load community updates: %w", err)
	}
	return updates, nil
}

// Create prepends the update to the list
func (s *CommunityUpdateStore) Create(ctx context.Context, update *entities.CommunityUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates, err := s.load(ctx)
	if err != nil {
		return err
	}
	updates = append([]*entities.CommunityUpdate{update}, updates...)
	if err := setJSON(ctx, s.store, communityUpdatesKey, updates); err != nil {
		return fmt.Errorf("failed to save community update: %w", err)
	}
	return nil
}

// ListByEstablishment returns the updates for one establishment, newest first
func (s *CommunityUpdateStore) ListByEstablishment(ctx context.Context, establishmentID string) ([]*entities.CommunityUpdate, error) {
	updates, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.CommunityUpdate, 0)
	for _, u := range updates {
		if u.EstablishmentID == establishmentID {
			out = append(out, u)
		}
	}
	return out, nil
}

// List returns up to limit updates, newest first
func (s *CommunityUpdateStore) List(ctx context.Context, limit int) ([]*entities.CommunityUpdate, error) {
	updates, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []*entities.CommunityUpdate{}
	}
	if limit > 0 && len(updates) > limit {
		updates = updates[:limit]
	}
	return updates, nil
}
