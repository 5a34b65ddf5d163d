package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
)

// VectorCache stores vectors under opaque keys. A miss is (nil, false, nil).
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// Cached serves repeated texts from a VectorCache. Cache errors are logged and
// otherwise ignored; the backend stays the source of truth.
type Cached struct {
	next  Embedder
	cache VectorCache
}

func NewCached(next Embedder, cache VectorCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

// EmbedBatch sends only the cache misses to the backend, as one batch.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		keys[i] = c.key(t)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	if err := CheckDimensions(vecs, c.Dimension()); err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		c.store(ctx, keys[i], vecs[j])
	}
	return out, nil
}

func (c *Cached) Dimension() int { return c.next.Dimension() }

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.next.Name() + ":" + hex.EncodeToString(sum[:])
}

func (c *Cached) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("embedding cache get failed: %v", err)
		return nil, false
	}
	if !ok || len(vec) != c.Dimension() {
		return nil, false
	}
	return vec, true
}

func (c *Cached) store(ctx context.Context, key string, vec []float32) {
	if err := c.cache.Set(ctx, key, vec); err != nil {
		log.Printf("embedding cache set failed: %v", err)
	}
}
