package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/dishcraft/backend/internal/model"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// MockGenerationService is a mock implementation of the generation service
type MockGenerationService struct {
	mock.Mock
}

// Generate mocks the Generate method
func (m *MockGenerationService) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GenerationResponse), args.Error(1)
}

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// SaveDishes mocks the SaveDishes method
func (m *MockRecipeService) SaveDishes(ctx context.Context, dishes []types.Dish, userID *uuid.UUID) ([]model.Recipe, error) {
	args := m.Called(ctx, dishes, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

// ListRecipes mocks the ListRecipes method
func (m *MockRecipeService) ListRecipes(ctx context.Context, filter service.RecipeFilter) ([]model.Recipe, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

// MockTokenService is a mock implementation of the token service
type MockTokenService struct {
	mock.Mock
}

// ValidateToken mocks the ValidateToken method
func (m *MockTokenService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// GenerateToken mocks the GenerateToken method
func (m *MockTokenService) GenerateToken(claims *types.TokenClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

var (
	_ service.IGenerationService = (*MockGenerationService)(nil)
	_ service.IRecipeService     = (*MockRecipeService)(nil)
	_ service.ITokenService      = (*MockTokenService)(nil)
)
