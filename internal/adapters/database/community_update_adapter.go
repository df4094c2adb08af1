package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/repositories"
	"github.com/sixassist/cityassist/internal/infrastructure/clients/postgres"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const communityUpdatesTable = "community_updates"

// CommunityUpdateAdapter implements community update persistence in Postgres.
type CommunityUpdateAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewCommunityUpdateAdapter creates a new community update adapter.
func NewCommunityUpdateAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.CommunityUpdateRepository {
	return &CommunityUpdateAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Create inserts a community update.
func (a *CommunityUpdateAdapter) Create(ctx context.Context, update *entities.CommunityUpdate) error {
	if update == nil {
		return apperrors.NewInternalError("community update is nil", fmt.Errorf("community update is nil"))
	}
	defer a.observe(ctx, "insert", time.Now())

	record := goqu.Record{
		"id":               update.ID,
		"establishment_id": update.EstablishmentID,
		"type":             string(update.Type),
		"content":          update.Content,
		"created_at":       update.CreatedAt,
		"created_by":       update.CreatedBy,
		"location":         update.Location,
		"reporter":         update.Reporter,
	}

	query, args, err := a.db.Insert(communityUpdatesTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build community update insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create community update", err)
	}
	return nil
}

// ListByEstablishment returns the updates for one establishment, newest first.
func (a *CommunityUpdateAdapter) ListByEstablishment(ctx context.Context, establishmentID string) ([]*entities.CommunityUpdate, error) {
	defer a.observe(ctx, "list_by_establishment", time.Now())
	ds := a.selectUpdates().Where(goqu.Ex{"establishment_id": establishmentID})
	return a.query(ctx, ds)
}

// List returns up to limit updates, newest first.
func (a *CommunityUpdateAdapter) List(ctx context.Context, limit int) ([]*entities.CommunityUpdate, error) {
	defer a.observe(ctx, "list", time.Now())
	ds := a.selectUpdates()
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.query(ctx, ds)
}

func (a *CommunityUpdateAdapter) selectUpdates() *goqu.SelectDataset {
	return a.db.Select(
		"id", "establishment_id", "type", "content",
		"created_at", "created_by", "location", "reporter",
	).From(communityUpdatesTable).
		Order(goqu.I("created_at").Desc())
}

func (a *CommunityUpdateAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.CommunityUpdate, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build community update query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list community updates", err)
	}
	defer rows.Close()

	updates := make([]*entities.CommunityUpdate, 0)
	for rows.Next() {
		u := &entities.CommunityUpdate{}
		var updateType string
		if err := rows.Scan(
			&u.ID,
			&u.EstablishmentID,
			&updateType,
			&u.Content,
			&u.CreatedAt,
			&u.CreatedBy,
			&u.Location,
			&u.Reporter,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan community update", err)
		}
		u.Type = entities.UpdateType(updateType)
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate community updates", err)
	}

	return updates, nil
}

func (a *CommunityUpdateAdapter) observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, "community_updates."+operation, time.Since(start))
}
