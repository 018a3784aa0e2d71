package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/dishcraft/backend/internal/model"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// RecipeFilter narrows a recipe listing
type RecipeFilter struct {
	UserID *uuid.UUID
	Query  string
	Limit  int
}

// RecipeService handles saved recipe operations
type RecipeService struct {
	db       *gorm.DB
	embedder Embedder
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, embedder Embedder) *RecipeService {
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	return &RecipeService{
		db:       db,
		embedder: embedder,
	}
}

// SaveDishes stores every dish in one transaction, owned by userID when set
func (s *RecipeService) SaveDishes(ctx context.Context, dishes []types.Dish, userID *uuid.UUID) ([]model.Recipe, error) {
	if len(dishes) == 0 {
		return nil, fmt.Errorf("%w: no recipes to save", ErrInvalidRequest)
	}

	recipes := make([]model.Recipe, 0, len(dishes))
	for i, d := range dishes {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("%w: recipe %d has no title", ErrInvalidRequest, i)
		}
		r := model.RecipeFromDish(d)
		r.UserID = userID
		r.Embedding = s.embedder.Embed(r.SearchText())
		recipes = append(recipes, r)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&recipes).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recipes: %w", err)
	}
	return recipes, nil
}

// ListRecipes returns saved recipes newest first. With a query, postgres
// orders keyword matches by embedding distance; other databases fall back
// to keyword matching only.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	ordered := false
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		if s.db.Dialector.Name() == "postgres" {
			query = query.
				Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(ingredients::text) LIKE ? OR LOWER(tags::text) LIKE ?",
					like, like, like, like).
				Clauses(clause.OrderBy{Expression: clause.Expr{
					SQL:                "embedding <-> ?, created_at DESC",
					Vars:               []interface{}{s.embedder.Embed(q)},
					WithoutParentheses: true,
				}})
			ordered = true
		} else {
			query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(ingredients) LIKE ? OR LOWER(tags) LIKE ?",
				like, like, like, like)
		}
	}

	if !ordered {
		query = query.Order("created_at DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}
