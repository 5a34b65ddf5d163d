package embedding

import (
	"context"
	"errors"
	"sync"
)

var errBackend = errors.New("backend down")

// fakeEmbedder fails its first `failures` calls with err, then returns
// constant vectors of length dim.
type fakeEmbedder struct {
	mu       sync.Mutex
	dim      int
	failures int
	err      error
	calls    int
	batches  [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.calls <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errBackend
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Name() string   { return "fake" }

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]float32
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]float32{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("cache offline")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = vec
	return nil
}
