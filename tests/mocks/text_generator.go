// Package mocks holds testify mocks for the domain provider interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockTextGenerator is a mock providers.TextGenerator.
type MockTextGenerator struct {
	mock.Mock
}

// NewMockTextGenerator creates a mock that asserts its expectations on cleanup.
func NewMockTextGenerator(t *testing.T) *MockTextGenerator {
	m := &MockTextGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Generate implements providers.TextGenerator.
func (m *MockTextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}
