// Package retriever finds the chunks most relevant to a question within one
// tenant's documents.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopherai-docqa/internal/embedding"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/vectorindex"
)

const (
	DefaultK         = 3
	DefaultOverFetch = 3
)

// Options tune one retrieval. Zero values fall back to the retriever defaults.
type Options struct {
	K int
	// MaxPerDocument caps hits from a single document; 0 means no cap.
	MaxPerDocument int
	// MinScore drops hits scoring below it; 0 keeps everything.
	MinScore float32
}

type Result struct {
	Query string            `json:"query"`
	Hits  []vectorindex.Hit `json:"hits"`
}

type Retriever struct {
	embedder  embedding.Embedder
	index     vectorindex.Index
	metric    vectorindex.Metric
	overFetch int
	defaults  Options
}

type Option func(*Retriever)

// WithOverFetch sets how many candidates per requested hit are pulled from the
// index before per-document capping.
func WithOverFetch(factor int) Option {
	return func(r *Retriever) {
		if factor >= 1 {
			r.overFetch = factor
		}
	}
}

func WithMetric(m vectorindex.Metric) Option {
	return func(r *Retriever) {
		if m != "" {
			r.metric = m
		}
	}
}

func WithDefaults(opts Options) Option {
	return func(r *Retriever) { r.defaults = opts }
}

func New(embedder embedding.Embedder, index vectorindex.Index, opts ...Option) (*Retriever, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder %s produces %d values, index holds %d",
			model.ErrDimensionMismatch, embedder.Name(), embedder.Dimension(), index.Dimension())
	}
	r := &Retriever{
		embedder:  embedder,
		index:     index,
		metric:    vectorindex.MetricCosine,
		overFetch: DefaultOverFetch,
		defaults:  Options{K: DefaultK},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaults.K <= 0 {
		r.defaults.K = DefaultK
	}
	return r, nil
}

// Retrieve returns up to opts.K hits for query, best first.
//
// It fails with ErrNoContextAvailable when the tenant has nothing indexed or
// the index cannot be read, and with ErrEmbeddingUnavailable when the query
// cannot be embedded. An index with content but nothing above MinScore yields
// an empty result and no error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, opts Options) (*Result, error) {
	query = strings.TrimSpace(query)
	if tenantID == "" || query == "" {
		return nil, fmt.Errorf("%w: tenant and query are required", model.ErrInvalidInput)
	}
	opts = r.withDefaults(opts)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count, err := r.index.Count(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNoContextAvailable, err)
	}
	if count == 0 {
		return nil, model.ErrNoContextAvailable
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, model.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrEmbeddingUnavailable, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates, err := r.index.Search(ctx, tenantID, vec, opts.K*r.overFetch, r.metric)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", model.ErrNoContextAvailable, err)
	}

	return &Result{Query: query, Hits: selectHits(candidates, opts)}, nil
}

func (r *Retriever) withDefaults(opts Options) Options {
	if opts.K <= 0 {
		opts.K = r.defaults.K
	}
	if opts.MaxPerDocument <= 0 {
		opts.MaxPerDocument = r.defaults.MaxPerDocument
	}
	if opts.MinScore == 0 {
		opts.MinScore = r.defaults.MinScore
	}
	return opts
}

// selectHits applies the score floor and per-document cap to candidates that
// are already sorted best first, keeping at most K.
func selectHits(candidates []vectorindex.Hit, opts Options) []vectorindex.Hit {
	out := make([]vectorindex.Hit, 0, opts.K)
	perDoc := make(map[string]int)
	for _, h := range candidates {
		if len(out) == opts.K {
			break
		}
		if opts.MinScore != 0 && h.Score < opts.MinScore {
			continue
		}
		if opts.MaxPerDocument > 0 && perDoc[h.DocumentID] >= opts.MaxPerDocument {
			continue
		}
		perDoc[h.DocumentID]++
		out = append(out, h)
	}
	return out
}
