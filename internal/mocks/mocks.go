// Package mocks holds testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

// MockEmbedder returns the same small vector for any text.
type MockEmbedder struct{}

func (MockEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (MockEmbedder) Model() string { return "mock" }

type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, upload *service.ImageUpload, prefix string) (string, error) {
	args := m.Called(ctx, upload, prefix)
	return args.String(0), args.Error(1)
}
