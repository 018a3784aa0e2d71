package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/internal/middleware"
	"github.com/pageza/dishcraft/backend/internal/service"
)

// Dependencies are the collaborators the routes are built from. Recipes,
// Tokens and Limiter are optional.
type Dependencies struct {
	Generation service.IGenerationService
	Recipes    service.IRecipeService
	Tokens     middleware.TokenValidator
	Limiter    middleware.Limiter
	Gatherer   prometheus.Gatherer
	// Ping reports database health; nil skips the check
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

// HealthCheck returns the health status of the API
func HealthCheck(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "database unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Dishcraft API is running",
		})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	health := HealthCheck(deps.Ping)
	router.GET("/health", health)
	router.GET("/api/health", health)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.OptionalAuth(deps.Tokens))

	var generateMiddleware []gin.HandlerFunc
	if deps.Limiter != nil {
		generateMiddleware = append(generateMiddleware, middleware.RateLimit(deps.Limiter, deps.Logger))
	}
	NewGenerateHandler(deps.Generation, deps.Logger).RegisterRoutes(apiGroup, generateMiddleware...)

	if deps.Recipes != nil {
		NewRecipeHandler(deps.Recipes, deps.Logger).RegisterRoutes(apiGroup, deps.Tokens)
	}
}
