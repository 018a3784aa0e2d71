package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// GenerateHandler serves POST /api/generate
type GenerateHandler struct {
	generation service.IGenerationService
	logger     *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler instance
func NewGenerateHandler(generation service.IGenerationService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		generation: generation,
		logger:     logging.OrNop(logger),
	}
}

// RegisterRoutes mounts the endpoint behind the given middleware
func (h *GenerateHandler) RegisterRoutes(router *gin.RouterGroup, mws ...gin.HandlerFunc) {
	router.POST("/generate", append(mws, h.Generate)...)
}

// Generate validates the request, runs the pipeline and returns the dishes
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.generation.Generate(c.Request.Context(), &req)
	if err != nil {
		var validationErr *types.ValidationError
		var parseErr *service.ParseError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		case errors.As(err, &parseErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Model response parse error", "raw": parseErr.Raw})
		default:
			h.logger.Error("generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
