package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

// MaxUpdateLength is the longest accepted update content, in characters.
const MaxUpdateLength = 500

// CurrentUserResolver resolves a session token to its user.
type CurrentUserResolver interface {
	Current(ctx context.Context, token string) (*entities.User, error)
}

// CreateUpdateRequest is a new community update.
type CreateUpdateRequest struct {
	EstablishmentID   string
	Type              entities.UpdateType
	Content           string
	EstablishmentName string
}

// CommunityUpdateService manages community-submitted status notes.
type CommunityUpdateService struct {
	repo     repositories.CommunityUpdateRepository
	users    CurrentUserResolver
	eventBus providers.EventBus
	now      func() time.Time
}

// NewCommunityUpdateService creates a new community update service.
// eventBus may be nil.
func NewCommunityUpdateService(
	repo repositories.CommunityUpdateRepository,
	users CurrentUserResolver,
	eventBus providers.EventBus,
) *CommunityUpdateService {
	return &CommunityUpdateService{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
		now:      time.Now,
	}
}

// Create stores an update on behalf of the signed-in user and publishes it.
func (s *CommunityUpdateService) Create(ctx context.Context, token string, req CreateUpdateRequest) (*entities.CommunityUpdate, error) {
	user, err := s.users.Current(ctx, token)
	if err != nil {
		return nil, err
	}

	establishmentID := strings.TrimSpace(req.EstablishmentID)
	if establishmentID == "" {
		return nil, apperrors.NewValidationError("establishment id is required")
	}
	if !req.Type.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown update type %q", req.Type))
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required")
	}
	if utf8.RuneCountInString(content) > MaxUpdateLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("content must be at most %d characters", MaxUpdateLength))
	}

	update := &entities.CommunityUpdate{
		ID:              "update_" + uuid.NewString(),
		EstablishmentID: establishmentID,
		Type:            req.Type,
		Content:         content,
		CreatedAt:       s.now().UTC(),
		CreatedBy:       user.ID,
		Location:        strings.TrimSpace(req.EstablishmentName),
		Reporter:        user.Reporter(),
	}
	if err := s.repo.Create(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to store update: %w", err)
	}

	s.publish(ctx, update)
	return update, nil
}

func (s *CommunityUpdateService) publish(ctx context.Context, update *entities.CommunityUpdate) {
	if s.eventBus == nil {
		return
	}
	for _, ch := range []string{
		providers.EventChannelCommunityUpdates,
		providers.GetEstablishmentChannel(update.EstablishmentID),
	} {
		if err := s.eventBus.Publish(ctx, ch, update); err != nil {
			log.Warn().Err(err).Str("channel", ch).Msg("failed to publish community update")
		}
	}
}

// ListForEstablishment returns the establishment's updates, newest first.
func (s *CommunityUpdateService) ListForEstablishment(ctx context.Context, establishmentID string) ([]*entities.CommunityUpdateView, error) {
	updates, err := s.repo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	return s.views(updates), nil
}

// Latest returns the newest update for the establishment, or nil.
func (s *CommunityUpdateService) Latest(ctx context.Context, establishmentID string) (*entities.CommunityUpdateView, error) {
	views, err := s.ListForEstablishment(ctx, establishmentID)
	if err != nil || len(views) == 0 {
		return nil, err
	}
	return views[0], nil
}

// ListAll returns up to limit updates across establishments, newest first.
func (s *CommunityUpdateService) ListAll(ctx context.Context, limit int) ([]*entities.CommunityUpdateView, error) {
	updates, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.views(updates), nil
}

// View decorates one update with its display age.
func (s *CommunityUpdateService) View(update *entities.CommunityUpdate) *entities.CommunityUpdateView {
	now := s.now()
	return &entities.CommunityUpdateView{
		CommunityUpdate: update,
		Time:            update.TimeAgo(now),
		Stale:           update.IsStale(now),
	}
}

func (s *CommunityUpdateService) views(updates []*entities.CommunityUpdate) []*entities.CommunityUpdateView {
	out := make([]*entities.CommunityUpdateView, 0, len(updates))
	for _, u := range updates {
		out = append(out, s.View(u))
	}
	return out
}
