package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"foodpics/internal/pkg/circuitbreaker"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
)

// Images larger than this are not downloaded in full.
const maxImageBytes = 32 << 20

var ErrUnexpectedStatus = errors.New("unexpected image response status")

// Downloads images and fingerprints their decoded pixels, so the same picture
// re-encoded under another URL still yields the same value.
type Provider struct {
	client    *http.Client
	userAgent string
	cache     *lru.Cache
	limiter   *rate.Limiter
	breaker   *circuitbreaker.CircuitBreaker
}

type Option func(*Provider)

// Replaces the HTTP client, e.g. with one pointing at a test server.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.client = client }
}

func WithUserAgent(userAgent string) Option {
	return func(p *Provider) { p.userAgent = userAgent }
}

// Limits image downloads to rps per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Provider) { p.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// Creates a new Provider. Fingerprints of the last cacheSize URLs are kept in
// memory.
func NewProvider(timeout time.Duration, cacheSize int, opts ...Option) (*Provider, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("fingerprint cache: %w", err)
	}
	provider := &Provider{
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		breaker: circuitbreaker.NewCircuitBreaker("image-host", 5, time.Minute),
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// Returns the fingerprint of the image at url.
func (p *Provider) Compute(ctx context.Context, url string) (uint64, error) {
	if cached, ok := p.cache.Get(url); ok {
		metrics.FingerprintCacheHits.Inc()
		return cached.(uint64), nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	var value uint64
	err := p.breaker.Execute(func() error {
		img, err := p.download(ctx, url)
		if err != nil {
			return err
		}
		value = Pixels(img)
		return nil
	})
	metrics.FingerprintLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FingerprintErrors.Inc()
		return 0, err
	}

	p.cache.Add(url, value)
	logger.Log.Debug("Computed image fingerprint",
		zap.String("image_url", url),
		zap.Uint64("fingerprint", value))
	return value, nil
}

func (p *Provider) download(ctx context.Context, url string) (image.Image, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		request.Header.Set("User-Agent", p.userAgent)
	}

	response, err := p.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, response.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(response.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Hashes the image dimensions and its pixels as 8-bit RGBA. Identical pixels
// give identical values regardless of the container format.
func Pixels(img image.Image) uint64 {
	digest := xxhash.New()
	bounds := img.Bounds()

	row := make([]byte, 0, 4*bounds.Dx())
	fmt.Fprintf(digest, "%dx%d:", bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row = row[:0]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			row = append(row, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
		}
		digest.Write(row)
	}
	return digest.Sum64()
}
