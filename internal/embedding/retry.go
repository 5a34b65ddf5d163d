package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopherai-docqa/internal/model"
)

const (
	DefaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
)

// Retrying retries transient backend failures with bounded exponential backoff.
// Once the attempts are spent it returns ErrEmbeddingUnavailable wrapping the
// last error.
type Retrying struct {
	next        Embedder
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

type RetryOption func(*Retrying)

func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithBackoff(base, max time.Duration) RetryOption {
	return func(r *Retrying) {
		if base > 0 {
			r.baseDelay = base
		}
		if max >= base {
			r.maxDelay = max
		}
	}
}

func NewRetrying(next Embedder, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:        next,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.do(ctx, func() error {
		v, err := r.next.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

func (r *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, func() error {
		v, err := r.next.EmbedBatch(ctx, texts)
		out = v
		return err
	})
	return out, err
}

func (r *Retrying) Dimension() int { return r.next.Dimension() }

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) do(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == r.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}
	return fmt.Errorf("%w: %d attempts: %w", model.ErrEmbeddingUnavailable, r.maxAttempts, lastErr)
}

func (r *Retrying) delay(attempt int) time.Duration {
	d := r.baseDelay << attempt
	if d <= 0 || d > r.maxDelay {
		return r.maxDelay
	}
	return d
}

// Wrong dimensions and bad input will not improve on a second try.
func retryable(err error) bool {
	return !errors.Is(err, model.ErrDimensionMismatch) &&
		!errors.Is(err, model.ErrInvalidInput) &&
		!errors.Is(err, model.ErrInvalidConfiguration) &&
		!errors.Is(err, context.Canceled)
}
