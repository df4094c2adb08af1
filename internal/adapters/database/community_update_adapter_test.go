package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updateColumns = []string{
	"id", "establishment_id", "type", "content",
	"created_at", "created_by", "location", "reporter",
}

func setupMockRepo(t *testing.T) (repositories.CommunityUpdateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCommunityUpdateAdapter(postgres.NewFromDB(db), nil), mock
}

func TestCommunityUpdateAdapter_Create(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectExec(`INSERT INTO "community_updates"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &entities.CommunityUpdate{
		ID:              "cu-1",
		EstablishmentID: "osm-42",
		Type:            entities.UpdateTypeMeals,
		Content:         "Hot lunch until 2pm",
		CreatedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		CreatedBy:       "user_1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommunityUpdateAdapter_CreateFailure(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectExec(`INSERT INTO "community_updates"`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &entities.CommunityUpdate{ID: "cu-1"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInternal))

	err = repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestCommunityUpdateAdapter_ListByEstablishment(t *testing.T) {
	repo, mock := setupMockRepo(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(updateColumns).
		AddRow("cu-2", "osm-42", "beds", "3 beds left", created.Add(time.Hour), "user_1", "Shelter A", "sam").
		AddRow("cu-1", "osm-42", "meals", "Lunch served", created, "user_2", "Shelter A", "alex")

	mock.ExpectQuery(`SELECT .* FROM "community_updates" WHERE \("establishment_id" = 'osm-42'\) ORDER BY "created_at" DESC`).
		WillReturnRows(rows)

	updates, err := repo.ListByEstablishment(context.Background(), "osm-42")
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "cu-2", updates[0].ID)
	assert.Equal(t, entities.UpdateTypeBeds, updates[0].Type)
	assert.Equal(t, "sam", updates[0].Reporter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommunityUpdateAdapter_ListWithLimit(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM "community_updates" ORDER BY "created_at" DESC LIMIT 5`).
		WillReturnRows(sqlmock.NewRows(updateColumns))

	updates, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, updates)
	assert.Empty(t, updates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommunityUpdateAdapter_ListQueryError(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM "community_updates"`).
		WillReturnError(errors.New("timeout"))

	_, err := repo.List(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInternal))
}
