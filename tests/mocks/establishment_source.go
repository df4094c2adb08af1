package mocks

import (
	"context"
	"testing"

	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/stretchr/testify/mock"
)

// MockEstablishmentSource is a mock providers.EstablishmentSource.
type MockEstablishmentSource struct {
	mock.Mock
	name string
}

// NewMockEstablishmentSource creates a named source mock.
func NewMockEstablishmentSource(t *testing.T, name string) *MockEstablishmentSource {
	m := &MockEstablishmentSource{name: name}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Name implements providers.EstablishmentSource.
func (m *MockEstablishmentSource) Name() string { return m.name }

// Fetch implements providers.EstablishmentSource.
func (m *MockEstablishmentSource) Fetch(ctx context.Context) ([]*entities.Establishment, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entities.Establishment)
	return list, args.Error(1)
}
