package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a remote backend with a token bucket. A batch
// costs one token, matching how providers count requests.
type RateLimited struct {
	next    Embedder
	limiter *rate.Limiter
}

func NewRateLimited(next Embedder, requestsPerSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, text)
}

func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedBatch(ctx, texts)
}

func (r *RateLimited) Dimension() int { return r.next.Dimension() }

func (r *RateLimited) Name() string { return r.next.Name() }
