package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/server"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/testhelpers"
	"github.com/pageza/dishcraft/backend/internal/types"
)

const modelDishes = "Here you go!\n```json\n" + `{"dishes": [
  {"id": "aloo jeera", "title": "Aloo Jeera", "summary": "Cumin potatoes", "servings": "2",
   "ingredients": [{"name": "Potato", "quantity": "3"}, {"name": "Cumin", "quantity": "1 tsp"}],
   "steps": ["Boil potatoes", "Temper cumin", "Toss"], "tags": ["Fasting"],
   "nutrition": {"calories": "280 kcal", "protein": 6, "carbs": 48, "fat": 8},
   "imagePrompt": "aloo jeera in a steel bowl"},
  {"title": "Peanut Sabudana Khichdi", "servings": 2,
   "ingredients": ["Sabudana", "Peanuts", "Potato"],
   "steps": "Soak sago overnight then stir fry",
   "imagePrompt": "sabudana khichdi"},
  {"title": "", "steps": ["dropped"], "ingredients": ["nothing"]},
]}` + "\n```"

func init() {
	gin.SetMode(gin.TestMode)
}

// modelServer answers every generateContent call with modelDishes, whichever
// API version prefix the caller uses.
func modelServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": modelDishes}},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func imageServer(t *testing.T) *httptest.Server {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fullStackConfig(t *testing.T, modelURL, imageURL string) *config.Config {
	return &config.Config{
		Environment: config.Test,
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Database:    testhelpers.SetupPostgres(t),
		Redis:       testhelpers.SetupRedis(t),
		Model: config.ModelConfig{
			APIKey:          "integration-key",
			Models:          []string{"gemini-test"},
			BaseURL:         modelURL,
			Temperature:     0.7,
			MaxOutputTokens: 2048,
		},
		Image: config.ImageConfig{
			Enabled:     true,
			Endpoint:    imageURL + "/prompt/",
			Width:       800,
			Height:      450,
			TimeoutMS:   5000,
			Attempts:    2,
			Concurrency: 3,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 30, Burst: 5},
		Auth:      config.AuthConfig{JWTSecret: "integration-secret"},
	}
}

func do(t *testing.T, handler http.Handler, method, path string, body []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestGenerateAndSave_FullStack(t *testing.T) {
	testhelpers.RequireDocker(t)

	models, modelHits := modelServer(t)
	images := imageServer(t)
	cfg := fullStackConfig(t, models.URL, images.URL)

	srv, err := server.NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	handler := srv.Handler()

	request := `{"diet":"Veg","mealType":"Lunch","calorieRange":"Low","fasting":true,"servings":2,"ingredients":["Potato","Peanuts","Cumin"]}`
	w := do(t, handler, http.MethodPost, "/api/generate", []byte(request), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Positive(t, modelHits.Load())
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))

	var resp types.GenerationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, types.SourceModel, resp.Source)
	require.Len(t, resp.Dishes, service.DishesPerResponse)

	assert.Equal(t, "aloo-jeera", resp.Dishes[0].ID)
	assert.EqualValues(t, 280, resp.Dishes[0].Nutrition.Calories)
	assert.Equal(t, "peanut-sabudana-khichdi", resp.Dishes[1].ID)
	assert.Equal(t, types.StringList{"Soak sago overnight then stir fry"}, resp.Dishes[1].Steps)
	for _, dish := range resp.Dishes {
		assert.True(t, strings.HasPrefix(dish.Image, images.URL+"/prompt/"), dish.Image)
		assert.Equal(t, service.FallbackImageURL(dish.Title), dish.FallbackImage)
		assert.NotNil(t, dish.CreatedAt)
	}

	userID := uuid.New()
	token, err := service.NewTokenService(cfg.Auth.JWTSecret).GenerateToken(&types.TokenClaims{UserID: userID})
	require.NoError(t, err)

	dishes, err := json.Marshal(resp.Dishes)
	require.NoError(t, err)
	w = do(t, handler, http.MethodPost, "/api/recipes", dishes, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var listed struct {
		Recipes []struct {
			Title  string     `json:"title"`
			UserID *uuid.UUID `json:"userId"`
		} `json:"recipes"`
	}
	w = do(t, handler, http.MethodGet, fmt.Sprintf("/api/recipes?userId=%s", userID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Recipes, service.DishesPerResponse)
	for _, r := range listed.Recipes {
		require.NotNil(t, r.UserID)
		assert.Equal(t, userID, *r.UserID)
	}

	// text search runs on postgres with embedding ordering
	w = do(t, handler, http.MethodGet, fmt.Sprintf("/api/recipes?userId=%s&q=khichdi", userID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	listed.Recipes = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	titles := make([]string, 0, len(listed.Recipes))
	for _, r := range listed.Recipes {
		titles = append(titles, r.Title)
	}
	assert.Contains(t, titles, "Peanut Sabudana Khichdi")
	assert.NotContains(t, titles, "Aloo Jeera")

	w = do(t, handler, http.MethodGet, "/metrics", nil, "")
	assert.Contains(t, w.Body.String(), `dishcraft_generation_responses_total{source="gemini"} 1`)
	assert.Contains(t, w.Body.String(), `dishcraft_image_resolutions_total{outcome="fetched"} 3`)
}

func TestGenerate_RedisRateLimit(t *testing.T) {
	testhelpers.RequireDocker(t)

	models, _ := modelServer(t)
	images := imageServer(t)
	cfg := fullStackConfig(t, models.URL, images.URL)
	cfg.RateLimit = config.RateLimitConfig{PerMinute: 2, Burst: 2}

	srv, err := server.NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	handler := srv.Handler()

	request := []byte(`{"diet":"Vegan","mealType":"Dinner","calorieRange":"Medium","ingredients":["Tofu","Rice","Broccoli"]}`)
	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodPost, "/api/generate", request, "").Code)
	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodPost, "/api/generate", request, "").Code)

	w := do(t, handler, http.MethodPost, "/api/generate", request, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodGet, "/api/health", nil, "").Code)
}
