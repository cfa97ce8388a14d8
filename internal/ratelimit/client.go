package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/logger"
)

const (
	// DEFAULT_MAX_QUEUE_TIME bounds how long a request waits for a token
	DEFAULT_MAX_QUEUE_TIME = 30 * time.Second
)

// limitedClient holds requests to one provider under its configured rate
type limitedClient struct {
	inner        adapter.HTTPClient
	provider     string
	limiter      *rate.Limiter
	maxQueueTime time.Duration
}

// NewHTTPClient wraps inner so calls to provider respect cfg.
// A non-positive requests_per_second returns inner unchanged.
func NewHTTPClient(inner adapter.HTTPClient, provider string, cfg config.RateLimitConfig) adapter.HTTPClient {
	if cfg.RequestsPerSecond <= 0 {
		return inner
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = max(int(cfg.RequestsPerSecond), 1)
	}
	maxQueueTime := cfg.MaxQueueTime
	if maxQueueTime <= 0 {
		maxQueueTime = DEFAULT_MAX_QUEUE_TIME
	}

	logger.Info("Rate limiting provider",
		zap.String("provider", provider),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", burst),
	)

	return &limitedClient{
		inner:        inner,
		provider:     provider,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxQueueTime: maxQueueTime,
	}
}

// acquireToken blocks until a token is available, the queue time is exceeded or ctx is done
func (c *limitedClient) acquireToken(ctx context.Context) error {
	queueCtx, cancel := context.WithTimeout(ctx, c.maxQueueTime)
	defer cancel()

	if err := c.limiter.Wait(queueCtx); err != nil {
		logger.WarnCtx(ctx, "Rate limit token unavailable",
			zap.String("provider", c.provider),
			zap.Error(err),
		)
		return fmt.Errorf("rate limit for %s: %w", c.provider, err)
	}
	return nil
}

func (c *limitedClient) Get(ctx context.Context, url string, header http.Header, result interface{}) error {
	if err := c.acquireToken(ctx); err != nil {
		return err
	}
	return c.inner.Get(ctx, url, header, result)
}

func (c *limitedClient) Post(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	if err := c.acquireToken(ctx); err != nil {
		return nil, err
	}
	return c.inner.Post(ctx, url, header, body)
}
