package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// MockSuggestionService is a mock implementation of service.ISuggestionService
type MockSuggestionService struct {
	mock.Mock
}

func (m *MockSuggestionService) Suggest(ctx context.Context, userID uuid.UUID, req *types.MenuSuggestionRequest) (*types.MenuSuggestionResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MenuSuggestionResponse), args.Error(1)
}
