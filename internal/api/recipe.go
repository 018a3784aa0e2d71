package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/middleware"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/types"
)

const maxRecipeListLimit = 100

// RecipeHandler serves the saved recipe endpoints
type RecipeHandler struct {
	recipes service.IRecipeService
	logger  *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(recipes service.IRecipeService, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		logger:  logging.OrNop(logger),
	}
}

// RegisterRoutes mounts the recipe routes. /recipes/mine needs tokens and is
// left out when none are configured.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, tokens middleware.TokenValidator) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipes)
		if tokens != nil {
			recipes.GET("/mine", middleware.AuthMiddleware(tokens), h.ListMyRecipes)
		}
	}
}

// ListRecipes returns saved recipes newest first, optionally for one user or matching q
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	if raw := c.Query("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		filter.UserID = &userID
	}

	h.list(c, filter)
}

// ListMyRecipes returns the authenticated caller's saved recipes
func (h *RecipeHandler) ListMyRecipes(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	filter.UserID = &userID

	h.list(c, filter)
}

func (h *RecipeHandler) list(c *gin.Context, filter service.RecipeFilter) {
	recipes, err := h.recipes.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// listFilter reads q and limit; it writes the 400 itself when limit is bad
func listFilter(c *gin.Context) (service.RecipeFilter, bool) {
	filter := service.RecipeFilter{Query: c.Query("q")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return filter, false
		}
		filter.Limit = min(limit, maxRecipeListLimit)
	}
	return filter, true
}

// CreateRecipes saves one dish or an array of dishes for the caller
func (h *RecipeHandler) CreateRecipes(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	dishes, err := decodeDishes(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var owner *uuid.UUID
	if userID, ok := middleware.UserID(c); ok {
		owner = &userID
	}

	saved, err := h.recipes.SaveDishes(c.Request.Context(), dishes, owner)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to save recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recipes"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipes": saved})
}

// decodeDishes accepts a single dish object or an array of them
func decodeDishes(body []byte) ([]types.Dish, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("request body is empty")
	}

	if trimmed[0] == '[' {
		var dishes []types.Dish
		if err := json.Unmarshal(trimmed, &dishes); err != nil {
			return nil, errors.New("invalid request body")
		}
		return dishes, nil
	}

	var dish types.Dish
	if err := json.Unmarshal(trimmed, &dish); err != nil {
		return nil, errors.New("invalid request body")
	}
	return []types.Dish{dish}, nil
}
