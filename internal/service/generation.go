package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/metrics"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// DishesPerResponse is the number of dishes every generation returns
const DishesPerResponse = 3

// GenerationOptions holds the deployment policies of the pipeline
type GenerationOptions struct {
	// Batch resolves one image for the first dish and shares it across the response
	Batch bool
	// Strict reports unparsable model output as an error instead of using mock dishes
	Strict bool
}

// GenerationService orchestrates prompt building, the model call, parsing,
// the mock fallback and image resolution.
type GenerationService struct {
	gateway TextFetcher
	mock    *MockGenerator
	images  ImageSource
	opts    GenerationOptions
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewGenerationService creates a new GenerationService instance. gateway may
// be nil when no model credential is configured; dishes then always come
// from the mock generator.
func NewGenerationService(gateway TextFetcher, images ImageSource, opts GenerationOptions, logger *zap.Logger, m *metrics.Metrics) *GenerationService {
	return &GenerationService{
		gateway: gateway,
		mock:    NewMockGenerator(),
		images:  images,
		opts:    opts,
		now:     time.Now,
		logger:  logging.OrNop(logger),
		metrics: m,
	}
}

// Generate produces three dishes with images for req. Only validation errors
// and strict-mode parse errors are returned; every model failure degrades to
// mock dishes. Cancellation of ctx is not passed on to model or image calls.
func (s *GenerationService) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResponse, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "GenerationService.Generate")
	defer span.End()

	prompt := BuildPrompt(req, req.CalorieTarget())

	resp := &types.GenerationResponse{Source: types.SourceMock}
	if s.gateway != nil {
		dishes, raw, err := s.fromModel(ctx, prompt, req)
		switch {
		case err == nil:
			resp.Dishes = dishes
			resp.Source = types.SourceModel
		case errors.Is(err, ErrParse):
			if s.opts.Strict {
				return nil, err
			}
			s.logger.Warn("model response unparsable, using mock dishes", zap.Int("raw_len", len(raw)))
			resp.Source = types.SourceModelFallback
			resp.Raw = raw
		default:
			s.logger.Warn("model unavailable, using mock dishes", zap.Error(err))
		}
	}
	if resp.Dishes == nil {
		resp.Dishes = s.mock.Generate(req).Dishes
	}

	s.attachImages(ctx, resp.Dishes)
	s.metrics.Generation(string(resp.Source))
	s.logger.Info("dishes generated",
		zap.String("source", string(resp.Source)), zap.Int("count", len(resp.Dishes)))
	return resp, nil
}

func (s *GenerationService) fromModel(ctx context.Context, prompt string, req *types.GenerationRequest) ([]types.Dish, string, error) {
	text, err := s.gateway.FetchText(ctx, prompt)
	if err != nil {
		return nil, "", err
	}

	list, err := ParseDishes(text)
	if err != nil {
		return nil, text, err
	}

	dishes := s.normalize(list.Dishes, req)
	if len(dishes) == 0 {
		return nil, text, &ParseError{Raw: text}
	}
	return dishes, text, nil
}

// normalize drops unusable model dishes, fixes ids and servings, then tops
// the list up from the mock generator so exactly three dishes remain.
func (s *GenerationService) normalize(in []types.Dish, req *types.GenerationRequest) []types.Dish {
	out := make([]types.Dish, 0, DishesPerResponse)
	seen := make(map[string]bool)

	add := func(d types.Dish) {
		id := types.Slugify(d.ID)
		if id == "" {
			id = types.Slugify(d.Title)
		}
		if id == "" {
			id = "dish"
		}
		base := id
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		seen[id] = true
		d.ID = id
		out = append(out, d)
	}

	for _, d := range in {
		if len(out) == DishesPerResponse {
			break
		}
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" || len(d.Steps) == 0 || len(d.Ingredients) == 0 {
			continue
		}
		if d.Servings < 1 {
			d.Servings = types.FlexInt(req.Servings)
		}
		add(d)
	}

	if len(out) > 0 && len(out) < DishesPerResponse {
		for _, d := range s.mock.Generate(req).Dishes {
			if len(out) == DishesPerResponse {
				break
			}
			add(d)
		}
	}
	return out
}

// attachImages sets image, fallbackImage and createdAt on every dish
func (s *GenerationService) attachImages(ctx context.Context, dishes []types.Dish) {
	if len(dishes) == 0 {
		return
	}

	if s.opts.Batch {
		shared := s.images.Resolve(ctx, dishes[0].ImagePrompt, dishes[0].Title)
		for i := range dishes {
			dishes[i].Image = shared
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i := range dishes {
			g.Go(func() error {
				dishes[i].Image = s.images.Resolve(gctx, dishes[i].ImagePrompt, dishes[i].Title)
				return nil
			})
		}
		_ = g.Wait()
	}

	createdAt := s.now().UTC()
	for i := range dishes {
		dishes[i].FallbackImage = FallbackImageURL(dishes[i].Title)
		dishes[i].CreatedAt = &createdAt
	}
}

// FallbackImageURL is the stock photo a client shows if the primary image fails to load
func FallbackImageURL(title string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/450", url.PathEscape(title))
}
