package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/dishcraft/backend/internal/middleware"
	"github.com/pageza/dishcraft/backend/internal/mocks"
	"github.com/pageza/dishcraft/backend/internal/model"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/types"
)

func setupRecipeRouter(recipes service.IRecipeService, tokens middleware.TokenValidator) *gin.Engine {
	router := gin.New()
	group := router.Group("/api")
	group.Use(middleware.OptionalAuth(tokens))
	NewRecipeHandler(recipes, nil).RegisterRoutes(group, tokens)
	return router
}

func getPath(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListRecipes(t *testing.T) {
	userID := uuid.New()
	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, service.RecipeFilter{UserID: &userID, Query: "aloo", Limit: 100}).
		Return([]model.Recipe{{ID: uuid.New(), Title: "Aloo Jeera"}}, nil)
	recipes.On("ListRecipes", mock.Anything, service.RecipeFilter{}).
		Return([]model.Recipe{}, nil)

	router := setupRecipeRouter(recipes, nil)

	w := getPath(router, fmt.Sprintf("/api/recipes?userId=%s&q=aloo&limit=500", userID))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Recipes []model.Recipe `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "Aloo Jeera", body.Recipes[0].Title)

	w = getPath(router, "/api/recipes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
	recipes.AssertExpectations(t)
}

func TestListRecipes_BadQuery(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	router := setupRecipeRouter(recipes, nil)

	for _, path := range []string{"/api/recipes?userId=chef", "/api/recipes?limit=0", "/api/recipes?limit=ten"} {
		w := getPath(router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	recipes.AssertNotCalled(t, "ListRecipes", mock.Anything, mock.Anything)
}

func TestListRecipes_ServiceError(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	w := getPath(setupRecipeRouter(recipes, nil), "/api/recipes")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCreateRecipes(t *testing.T) {
	userID := uuid.New()
	tokens := new(mocks.MockTokenService)
	tokens.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: userID}, nil)

	t.Run("single dish with owner", func(t *testing.T) {
		recipes := new(mocks.MockRecipeService)
		recipes.On("SaveDishes", mock.Anything, mock.MatchedBy(func(d []types.Dish) bool {
			return len(d) == 1 && d[0].Title == "Aloo Jeera"
		}), &userID).Return([]model.Recipe{{ID: uuid.New(), Title: "Aloo Jeera", UserID: &userID}}, nil)

		w := postJSON(setupRecipeRouter(recipes, tokens), "/api/recipes",
			`{"title":"Aloo Jeera","steps":["Boil"],"ingredients":["Potato"]}`,
			"Authorization", "Bearer good")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		recipes.AssertExpectations(t)
	})

	t.Run("array of dishes anonymously", func(t *testing.T) {
		recipes := new(mocks.MockRecipeService)
		recipes.On("SaveDishes", mock.Anything, mock.MatchedBy(func(d []types.Dish) bool {
			return len(d) == 2
		}), (*uuid.UUID)(nil)).Return([]model.Recipe{{Title: "A"}, {Title: "B"}}, nil)

		w := postJSON(setupRecipeRouter(recipes, tokens), "/api/recipes", `[{"title":"A"},{"title":"B"}]`)
		assert.Equal(t, http.StatusCreated, w.Code)
		recipes.AssertExpectations(t)
	})

	t.Run("rejected by service", func(t *testing.T) {
		recipes := new(mocks.MockRecipeService)
		recipes.On("SaveDishes", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: recipe 0 has no title", service.ErrInvalidRequest))

		w := postJSON(setupRecipeRouter(recipes, tokens), "/api/recipes", `{"summary":"untitled"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		recipes := new(mocks.MockRecipeService)
		recipes.On("SaveDishes", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

		w := postJSON(setupRecipeRouter(recipes, tokens), "/api/recipes", `{"title":"Poha"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk full")
	})

	t.Run("malformed bodies", func(t *testing.T) {
		recipes := new(mocks.MockRecipeService)
		router := setupRecipeRouter(recipes, tokens)
		for _, body := range []string{"", "   ", "[{", `"just a string"`} {
			w := postJSON(router, "/api/recipes", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		recipes.AssertNotCalled(t, "SaveDishes", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListMyRecipes(t *testing.T) {
	userID := uuid.New()
	tokens := new(mocks.MockTokenService)
	tokens.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: userID}, nil)
	tokens.On("ValidateToken", "stale").Return(nil, service.ErrInvalidToken)

	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, service.RecipeFilter{UserID: &userID, Query: "poha", Limit: 5}).
		Return([]model.Recipe{{ID: uuid.New(), Title: "Poha", UserID: &userID}}, nil)
	router := setupRecipeRouter(recipes, tokens)

	get := func(path, auth string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		router.ServeHTTP(w, req)
		return w
	}

	// userId from the query never overrides the token owner
	w := get(fmt.Sprintf("/api/recipes/mine?q=poha&limit=5&userId=%s", uuid.New()), "Bearer good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Poha")

	assert.Equal(t, http.StatusUnauthorized, get("/api/recipes/mine", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/api/recipes/mine", "Bearer stale").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/recipes/mine?limit=0", "Bearer good").Code)
	recipes.AssertExpectations(t)
}

func TestListMyRecipes_NotMountedWithoutTokens(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	w := getPath(setupRecipeRouter(recipes, nil), "/api/recipes/mine")
	assert.Equal(t, http.StatusNotFound, w.Code)
	recipes.AssertNotCalled(t, "ListRecipes", mock.Anything, mock.Anything)
}
