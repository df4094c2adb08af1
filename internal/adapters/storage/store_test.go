package storage

import (
	"context"
	"testing"
	"time"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Set(ctx, "k", []byte("v2")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	repo := NewUserStore(NewMemoryStore())

	user := &entities.User{ID: "user_1", Email: "sam@example.com", DisplayName: "sam"}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &entities.User{ID: "user_2", Email: "SAM@example.com"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))

	byEmail, err := repo.GetByEmail(ctx, " Sam@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "user_1", byEmail.ID)

	byEmail.SavedEstablishments = []string{"osm-1"}
	require.NoError(t, repo.Update(ctx, byEmail))
	got, err := repo.GetByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"osm-1"}, got.SavedEstablishments)

	require.NoError(t, repo.Delete(ctx, "user_1"))
	_, err = repo.GetByID(ctx, "user_1")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
	_, err = repo.GetByEmail(ctx, "sam@example.com")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))

	assert.NoError(t, repo.Delete(ctx, "user_1"))

	err = repo.Update(ctx, &entities.User{ID: "ghost"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestCommunityUpdateStore(t *testing.T) {
	ctx := context.Background()
	repo := NewCommunityUpdateStore(NewMemoryStore())

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	base := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, est := range []string{"a", "b", "a"} {
		require.NoError(t, repo.Create(ctx, &entities.CommunityUpdate{
			ID:              string(rune('1' + i)),
			EstablishmentID: est,
			Type:            entities.UpdateTypeNotes,
			Content:         "note",
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
			CreatedBy:       "user_1",
		}))
	}

	forA, err := repo.ListByEstablishment(ctx, "a")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "3", forA[0].ID)
	assert.Equal(t, "1", forA[1].ID)

	latestTwo, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latestTwo, 2)
	assert.Equal(t, "3", latestTwo[0].ID)
	assert.Equal(t, "2", latestTwo[1].ID)

	none, err := repo.ListByEstablishment(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}
