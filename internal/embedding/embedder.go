// Package embedding maps text to fixed-length vectors.
//
// Backends are chosen once at startup; retry, throttling and caching are
// layered on top as decorators that satisfy the same Embedder interface.
package embedding

import (
	"context"
	"fmt"

	"gopherai-docqa/internal/model"
)

// Embedder turns text into vectors of a fixed dimension.
type Embedder interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the length of every vector this embedder returns.
	Dimension() int
	// Name identifies the backend and model, e.g. "openai:text-embedding-3-small".
	Name() string
}

// CheckDimensions returns ErrDimensionMismatch unless every vector has length dim.
func CheckDimensions(vecs [][]float32, dim int) error {
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d values, want %d", model.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
