package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/dishcraft/backend/internal/model"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// TextFetcher returns raw model output for a prompt
type TextFetcher interface {
	FetchText(ctx context.Context, prompt string) (string, error)
}

// ImageSource resolves an image URL for a dish; it never fails
type ImageSource interface {
	Resolve(ctx context.Context, prompt, title string) string
}

// IGenerationService defines the interface for dish generation
type IGenerationService interface {
	Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResponse, error)
}

// IRecipeService defines the interface for saved recipe operations
type IRecipeService interface {
	SaveDishes(ctx context.Context, dishes []types.Dish, userID *uuid.UUID) ([]model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error)
}

// ITokenService defines the interface for bearer token operations
type ITokenService interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
}

var (
	_ TextFetcher        = (*ModelGateway)(nil)
	_ ImageSource        = (*ImageResolver)(nil)
	_ IGenerationService = (*GenerationService)(nil)
	_ IRecipeService     = (*RecipeService)(nil)
	_ ITokenService      = (*TokenService)(nil)
)
