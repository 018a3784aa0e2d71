package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/metrics"
	"github.com/pageza/dishcraft/backend/internal/types"
)

var (
	errImageDisabled = errors.New("image generation disabled")
	errImageShed     = errors.New("image concurrency limit reached")
)

// ImageUploader stores image bytes durably and returns their public URL
type ImageUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// PromptCache maps normalized image prompts to resolved URLs for the life of the process
type PromptCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewPromptCache creates an empty cache
func NewPromptCache() *PromptCache {
	return &PromptCache{entries: make(map[string]string)}
}

func normalizePrompt(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// Get returns the URL cached for prompt
func (c *PromptCache) Get(prompt string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.entries[normalizePrompt(prompt)]
	return u, ok
}

// Set records the URL for prompt, replacing any previous entry
func (c *PromptCache) Set(prompt, u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalizePrompt(prompt)] = u
}

// Len returns the number of cached prompts
func (c *PromptCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Gate bounds the number of concurrent image fetches. It never blocks:
// callers that cannot get a slot are expected to degrade.
type Gate struct {
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// NewGate creates a gate admitting at most limit holders
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// TryAcquire takes a slot if one is free
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inFlight.Add(1)
	return true
}

// Release frees a slot taken by TryAcquire. Releasing an idle gate is a no-op.
func (g *Gate) Release() {
	for {
		n := g.inFlight.Load()
		if n <= 0 {
			return
		}
		if g.inFlight.CompareAndSwap(n, n-1) {
			g.sem.Release(1)
			return
		}
	}
}

// InFlight returns the number of slots currently held
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// ImageResolver turns an image prompt into a display-ready URL. Resolve
// never fails: every failure ends in a deterministic placeholder.
type ImageResolver struct {
	cfg      config.ImageConfig
	client   *http.Client
	uploader ImageUploader
	cache    *PromptCache
	gate     *Gate
	retry    RetryPolicy
	now      func() time.Time
	seed     func() int64
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// ResolverOption customizes an ImageResolver
type ResolverOption func(*ImageResolver)

// WithImageHTTPClient replaces the client used against the image endpoint
func WithImageHTTPClient(c *http.Client) ResolverOption {
	return func(r *ImageResolver) { r.client = c }
}

// WithUploader enables durable storage of fetched images
func WithUploader(u ImageUploader) ResolverOption {
	return func(r *ImageResolver) { r.uploader = u }
}

// WithRetryPolicy replaces the fetch retry policy
func WithRetryPolicy(p RetryPolicy) ResolverOption {
	return func(r *ImageResolver) { r.retry = p }
}

// WithClock replaces the time source used for cache busting and upload keys
func WithClock(now func() time.Time) ResolverOption {
	return func(r *ImageResolver) { r.now = now }
}

// WithSeedSource replaces the random seed generator
func WithSeedSource(seed func() int64) ResolverOption {
	return func(r *ImageResolver) { r.seed = seed }
}

// WithResolverMetrics records resolutions on m
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *ImageResolver) { r.metrics = m }
}

// NewImageResolver creates a resolver with its own cache and gate
func NewImageResolver(cfg config.ImageConfig, logger *zap.Logger, opts ...ResolverOption) *ImageResolver {
	r := &ImageResolver{
		cfg:    cfg,
		client: &http.Client{},
		cache:  NewPromptCache(),
		gate:   NewGate(cfg.Concurrency),
		retry: imageRetryPolicy(cfg.Attempts,
			time.Duration(cfg.RateLimitBackoffMS)*time.Millisecond,
			time.Duration(cfg.RetryBackoffMS)*time.Millisecond),
		now:    time.Now,
		seed:   func() int64 { return rand.Int64N(1_000_000_000) },
		logger: logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache exposes the resolver's prompt cache
func (r *ImageResolver) Cache() *PromptCache { return r.cache }

// Gate exposes the resolver's concurrency gate
func (r *ImageResolver) Gate() *Gate { return r.gate }

// Resolve returns an image URL for the prompt, falling back to a placeholder
// derived from title. The result is cached under the normalized prompt.
func (r *ImageResolver) Resolve(ctx context.Context, prompt, title string) string {
	ctx, span := tracer.Start(ctx, "ImageResolver.Resolve")
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		prompt = fmt.Sprintf("%s, high quality food photography, studio lighting, 16:9", title)
	}

	if u, ok := r.cache.Get(prompt); ok {
		r.metrics.ImageResolution("cache")
		span.SetAttributes(attribute.String("image.outcome", "cache"))
		return u
	}

	var outcome string
	u, _ := firstSuccess(ctx,
		func(ctx context.Context) (string, error) {
			u, how, err := r.generate(ctx, prompt, title)
			outcome = how
			return u, err
		},
		func(context.Context) (string, error) {
			if outcome == "" {
				outcome = "placeholder"
			}
			return PlaceholderURL(title), nil
		},
	)
	if u == "" {
		// ctx was done before the chain reached the placeholder
		u = PlaceholderURL(title)
		outcome = "placeholder"
	}

	r.cache.Set(prompt, u)
	r.metrics.ImageResolution(outcome)
	span.SetAttributes(attribute.String("image.outcome", outcome))
	return u
}

// generate covers kill switch, admission, fetch and upload. The returned
// outcome names the step that decided the result.
func (r *ImageResolver) generate(ctx context.Context, prompt, title string) (string, string, error) {
	if !r.cfg.Enabled {
		return "", "disabled", errImageDisabled
	}
	if !r.gate.TryAcquire() {
		r.logger.Info("image concurrency limit reached, using placeholder",
			zap.String("title", title), zap.Int("limit", r.cfg.Concurrency))
		return "", "shed", errImageShed
	}
	r.metrics.SetImageInFlight(r.gate.InFlight())
	img, err := func() (*fetchedImage, error) {
		defer func() {
			r.gate.Release()
			r.metrics.SetImageInFlight(r.gate.InFlight())
		}()
		return r.fetch(ctx, prompt)
	}()
	if err != nil {
		r.logger.Warn("image fetch failed, using placeholder", zap.String("title", title), zap.Error(err))
		return "", "fetch_failed", err
	}

	if r.uploader == nil {
		return img.sourceURL, "fetched", nil
	}

	key := uploadKey(title, img.contentType, r.now())
	publicURL, err := r.uploader.Upload(ctx, key, img.data, img.contentType)
	if err != nil {
		r.logger.Warn("image upload failed, using placeholder", zap.String("key", key), zap.Error(err))
		return "", "upload_failed", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return publicURL, "uploaded", nil
}

type fetchedImage struct {
	sourceURL   string
	contentType string
	data        []byte
}

func (r *ImageResolver) fetch(ctx context.Context, prompt string) (*fetchedImage, error) {
	var img *fetchedImage
	err := r.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var err error
		img, err = r.fetchOnce(ctx, prompt, attempt)
		r.metrics.ImageFetchAttempt(fetchResult(err))
		if errors.Is(err, ErrImageRateLimited) {
			r.logger.Warn("image endpoint rate limited", zap.Int("attempt", attempt))
		} else if err != nil {
			r.logger.Debug("image fetch attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// fetchOnce performs a single attempt under its own deadline
func (r *ImageResolver) fetchOnce(ctx context.Context, prompt string, attempt int) (*fetchedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	source := r.imageURL(prompt, attempt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrImageTimeout, r.cfg.Timeout())
		}
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &StatusError{Kind: ErrImageRateLimited, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Kind: ErrImageBadStatus, Status: resp.StatusCode}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrImageContentType, resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w while reading body", ErrImageTimeout)
		}
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return &fetchedImage{sourceURL: source, contentType: mediaType, data: data}, nil
}

// imageURL builds the prompt-in-path request with a fresh seed and cache buster
func (r *ImageResolver) imageURL(prompt string, attempt int) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(r.cfg.Width))
	q.Set("height", strconv.Itoa(r.cfg.Height))
	q.Set("seed", strconv.FormatInt(r.seed(), 10))
	q.Set("nologo", "true")
	q.Set("cb", fmt.Sprintf("%d-%d", r.now().UnixMilli(), attempt))
	return r.cfg.Endpoint + url.PathEscape(strings.TrimSpace(prompt)) + "?" + q.Encode()
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrImageRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrImageBadStatus):
		return "bad_status"
	case errors.Is(err, ErrImageContentType):
		return "content_type"
	case errors.Is(err, ErrImageTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func uploadKey(title, contentType string, now time.Time) string {
	name := types.Slugify(title)
	if len(name) > 60 {
		name = strings.Trim(name[:60], "-")
	}
	if name == "" {
		name = "dish"
	}
	return fmt.Sprintf("dish-images/%s-%d.%s", name, now.UnixMilli(), imageExtension(contentType))
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}

type placeholderColors struct {
	bg, fg string
}

var placeholderPalette = []placeholderColors{
	{"F4A261", "1D3557"},
	{"2A9D8F", "FFFFFF"},
	{"E76F51", "FFFFFF"},
	{"264653", "E9C46A"},
	{"E9C46A", "264653"},
	{"8AB17D", "1B4332"},
	{"B5838D", "FFFFFF"},
	{"6D597A", "FFE8D6"},
}

var placeholderEmoji = []string{"🍛", "🥘", "🍲", "🥗", "🍜", "🫓", "🍚", "🥙"}

const placeholderCaptionRunes = 28

// PlaceholderURL derives a stable placeholder image reference from the title
func PlaceholderURL(title string) string {
	var h uint32
	for _, c := range title {
		h = h*31 + uint32(c)
	}
	colors := placeholderPalette[h%uint32(len(placeholderPalette))]
	emoji := placeholderEmoji[h%uint32(len(placeholderEmoji))]

	caption := strings.TrimSpace(title)
	if runes := []rune(caption); len(runes) > placeholderCaptionRunes {
		caption = strings.TrimSpace(string(runes[:placeholderCaptionRunes]))
	}

	return fmt.Sprintf("https://placehold.co/800x450/%s/%s?text=%s",
		colors.bg, colors.fg, url.QueryEscape(emoji+" "+caption))
}
