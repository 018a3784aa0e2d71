package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/metrics"
)

var tracer = otel.Tracer("github.com/pageza/dishcraft/backend/internal/service")

// contentGenerator is the part of the genai client the gateway uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ModelGateway obtains raw model text by walking the model identifiers,
// first through the SDK and then through the REST API.
type ModelGateway struct {
	sdk         contentGenerator
	client      *http.Client
	apiKey      string
	baseURL     string
	models      []string
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// GatewayOption customizes a ModelGateway
type GatewayOption func(*ModelGateway)

// WithContentGenerator replaces the SDK client
func WithContentGenerator(g contentGenerator) GatewayOption {
	return func(m *ModelGateway) { m.sdk = g }
}

// WithGatewayHTTPClient replaces the client used by the REST path
func WithGatewayHTTPClient(c *http.Client) GatewayOption {
	return func(m *ModelGateway) { m.client = c }
}

// WithGatewayMetrics records attempts on m
func WithGatewayMetrics(mt *metrics.Metrics) GatewayOption {
	return func(m *ModelGateway) { m.metrics = mt }
}

// NewModelGateway creates a gateway for cfg. The SDK client is built from
// the API key unless one was supplied; if it cannot be built, only the REST
// path is used.
func NewModelGateway(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger, opts ...GatewayOption) (*ModelGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrModelUnavailable)
	}

	g := &ModelGateway{
		client:      &http.Client{Timeout: 60 * time.Second},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		models:      append([]string(nil), cfg.Models...),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		logger:      logging.OrNop(logger),
	}
	if len(g.models) == 0 {
		g.models = append(g.models, config.DefaultModels...)
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.sdk == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      cfg.APIKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
		})
		if err != nil {
			g.logger.Warn("genai client unavailable, using REST path only", zap.Error(err))
		} else {
			g.sdk = client.Models
		}
	}
	return g, nil
}

// FetchText returns the first non-empty text any model produced for prompt.
// Identifiers are tried one at a time; there is no backoff between them.
func (g *ModelGateway) FetchText(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "ModelGateway.FetchText")
	defer span.End()

	var strategies []Strategy[string]
	if g.sdk != nil {
		strategies = append(strategies, g.eachModel("sdk", g.generateSDK, prompt))
	}
	strategies = append(strategies, g.eachModel("http", g.generateHTTP, prompt))

	text, err := firstSuccess(ctx, strategies...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "all models failed")
		g.logger.Warn("all model identifiers failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return text, nil
}

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

func (g *ModelGateway) eachModel(path string, generate generateFunc, prompt string) Strategy[string] {
	return func(ctx context.Context) (string, error) {
		var lastErr error
		for _, model := range g.models {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			text, err := generate(ctx, model, prompt)
			if err == nil && strings.TrimSpace(text) == "" {
				err = fmt.Errorf("empty response")
			}
			if err != nil {
				g.metrics.ModelAttempt(path, model, "error")
				g.logger.Debug("model attempt failed",
					zap.String("path", path), zap.String("model", model), zap.Error(err))
				lastErr = fmt.Errorf("%s %s: %w", path, model, err)
				continue
			}

			g.metrics.ModelAttempt(path, model, "ok")
			trace.SpanFromContext(ctx).SetAttributes(
				attribute.String("model.id", model),
				attribute.String("model.path", path),
			)
			g.logger.Info("model responded", zap.String("path", path), zap.String("model", model))
			return text, nil
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("%s: no models configured", path)
		}
		return "", lastErr
	}
}

func (g *ModelGateway) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	}
}

func (g *ModelGateway) generateSDK(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.sdk.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, g.generationConfig())
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// restRequest is the generateContent body of the Gemini REST API
type restRequest struct {
	Contents         []restContent      `json:"contents"`
	GenerationConfig restGenerationConf `json:"generationConfig"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restPart struct {
	Text string `json:"text"`
}

type restGenerationConf struct {
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int32   `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type restResponse struct {
	Candidates []struct {
		Content restContent `json:"content"`
	} `json:"candidates"`
}

func (g *ModelGateway) generateHTTP(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(restRequest{
		Contents: []restContent{{Role: "user", Parts: []restPart{{Text: prompt}}}},
		GenerationConfig: restGenerationConf{
			Temperature:      g.temperature,
			MaxOutputTokens:  g.maxTokens,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Kind: ErrModelUnavailable, Status: resp.StatusCode}
	}

	var result restResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
