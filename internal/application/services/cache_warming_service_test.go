package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCacheWarmingService_WarmAndInvalidate(t *testing.T) {
	ctx := context.Background()
	food := mocks.NewMockEstablishmentSource(t, "food")
	food.On("Fetch", mock.Anything).Return([]*entities.Establishment{
		est("f1", entities.CategoryFood, 43.6500, -79.3800),
	}, nil).Twice()

	memCache := cache.NewMemoryAdapter(16)
	svc := services.NewEstablishmentService(
		services.EstablishmentSources{Food: food},
		memCache,
		services.AggregatorOptions{CacheTTL: time.Minute},
		nil,
	)
	warming := services.NewCacheWarmingService(svc, memCache)

	require.NoError(t, warming.WarmCache(ctx))

	// Served from the warmed snapshot.
	list, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(list))

	require.NoError(t, warming.InvalidateCache(ctx))
	list, err = svc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCacheWarmingService_StopsWithContext(t *testing.T) {
	var calls atomic.Int32
	food := mocks.NewMockEstablishmentSource(t, "food")
	food.On("Fetch", mock.Anything).Return([]*entities.Establishment{}, nil).
		Run(func(mock.Arguments) { calls.Add(1) })

	svc := services.NewEstablishmentService(services.EstablishmentSources{Food: food}, nil, services.AggregatorOptions{}, nil)
	warming := services.NewCacheWarmingService(svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	warming.StartPeriodicWarming(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	assert.NoError(t, warming.InvalidateCache(context.Background()))
}
