package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"gopherai-docqa/internal/model"
)

// Hash is a local embedder using signed feature hashing over lower-cased word
// and word-bigram tokens. Vectors are L2 normalized, so the same text always
// yields the same vector and texts sharing words score higher under cosine.
type Hash struct {
	dim int
}

func NewHash(dim int) (*Hash, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", model.ErrInvalidConfiguration)
	}
	return &Hash{dim: dim}, nil
}

func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hash) Dimension() int { return h.dim }

func (h *Hash) Name() string { return fmt.Sprintf("hash:%d", h.dim) }

func (h *Hash) vector(text string) []float32 {
	vec := make([]float64, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		h.add(vec, w, 1)
		if i > 0 {
			h.add(vec, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (h *Hash) add(vec []float64, token string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(token))
	sum := f.Sum64()
	bucket := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}
