package vectorindex

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/platform/sqlite"
	"gopherai-docqa/internal/repository"
)

const testDim = 3

type backend struct {
	name string
	new  func(t *testing.T) Index
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Index {
			idx, err := NewMemory(testDim)
			require.NoError(t, err)
			return idx
		}},
		{"sql", func(t *testing.T) Index {
			db, err := sqlite.New(context.Background(), ":memory:")
			require.NoError(t, err)
			require.NoError(t, db.AutoMigrate(&model.Chunk{}))
			t.Cleanup(func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			})
			idx, err := NewSQL(repository.NewChunkRepository(db), testDim)
			require.NoError(t, err)
			return idx
		}},
	}
}

func records(doc string, vecs ...[]float32) []Record {
	out := make([]Record, len(vecs))
	for i, v := range vecs {
		out[i] = Record{
			ChunkID: fmt.Sprintf("%s-%d", doc, i),
			Ordinal: i,
			Vector:  v,
			Text:    fmt.Sprintf("%s chunk %d", doc, i),
		}
	}
	return out
}

func ref(id string, created time.Time) DocumentRef {
	return DocumentRef{ID: id, Name: id + ".pdf", CreatedAt: created}
}

func TestIndex_SearchRanksByCosine(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()
			now := time.Now()

			require.NoError(t, idx.Upsert(ctx, "t1", ref("d1", now), records("d1",
				[]float32{1, 0, 0},
				[]float32{0, 1, 0},
				[]float32{0.9, 0.1, 0},
			)))

			hits, err := idx.Search(ctx, "t1", []float32{1, 0, 0}, 2, MetricCosine)
			require.NoError(t, err)
			require.Len(t, hits, 2)
			assert.Equal(t, "d1-0", hits[0].ChunkID)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
			assert.Equal(t, "d1-2", hits[1].ChunkID)
			assert.Equal(t, "d1.pdf", hits[0].DocumentName)
		})
	}
}

func TestIndex_TenantIsolation(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()

			require.NoError(t, idx.Upsert(ctx, "a", ref("doc", time.Now()), records("a", []float32{1, 0, 0})))
			require.NoError(t, idx.Upsert(ctx, "b", ref("doc", time.Now()), records("b", []float32{1, 0, 0})))

			hits, err := idx.Search(ctx, "a", []float32{1, 0, 0}, 10, MetricCosine)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "a-0", hits[0].ChunkID)

			hits, err = idx.Search(ctx, "nobody", []float32{1, 0, 0}, 10, MetricCosine)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestIndex_UpsertReplacesAndDeleteRemoves(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()
			created := time.Now()

			require.NoError(t, idx.Upsert(ctx, "t1", ref("d1", created), records("old", []float32{1, 0, 0}, []float32{0, 1, 0})))
			require.NoError(t, idx.Upsert(ctx, "t1", ref("d1", created), records("new", []float32{0, 0, 1})))

			n, err := idx.Count(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			hits, err := idx.Search(ctx, "t1", []float32{1, 0, 0}, 10, MetricCosine)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "new-0", hits[0].ChunkID)

			require.NoError(t, idx.DeleteDocument(ctx, "t1", "d1"))
			require.NoError(t, idx.DeleteDocument(ctx, "t1", "d1"))
			require.NoError(t, idx.DeleteDocument(ctx, "ghost", "d1"))

			n, err = idx.Count(ctx, "t1")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestIndex_TiesPreferNewerDocumentThenLowerOrdinal(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()
			older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := older.Add(time.Hour)
			v := []float32{0, 1, 0}

			require.NoError(t, idx.Upsert(ctx, "t1", ref("old", older), records("old", v, v)))
			require.NoError(t, idx.Upsert(ctx, "t1", ref("new", newer), records("new", v, v)))

			hits, err := idx.Search(ctx, "t1", v, 3, MetricCosine)
			require.NoError(t, err)
			require.Len(t, hits, 3)
			assert.Equal(t, []string{"new-0", "new-1", "old-0"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
		})
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()

			err := idx.Upsert(ctx, "t1", ref("d1", time.Now()), records("d1", []float32{1, 0}))
			require.ErrorIs(t, err, model.ErrDimensionMismatch)

			_, err = idx.Search(ctx, "t1", []float32{1, 0, 0, 0}, 1, MetricCosine)
			require.ErrorIs(t, err, model.ErrDimensionMismatch)

			_, err = idx.Search(ctx, "t1", []float32{1, 0, 0}, 0, MetricCosine)
			require.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

func TestIndex_DotMetric(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			idx := b.new(t)
			ctx := context.Background()

			require.NoError(t, idx.Upsert(ctx, "t1", ref("d1", time.Now()), records("d1",
				[]float32{1, 0, 0},
				[]float32{3, 0, 0},
			)))
			hits, err := idx.Search(ctx, "t1", []float32{2, 0, 0}, 1, MetricDot)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "d1-1", hits[0].ChunkID)
			assert.InDelta(t, 6.0, hits[0].Score, 1e-6)
		})
	}
}

func TestMemory_ConcurrentUpsertsNeverTearReads(t *testing.T) {
	idx, err := NewMemory(testDim)
	require.NoError(t, err)
	ctx := context.Background()
	created := time.Now()

	const generations = 200
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		doc := fmt.Sprintf("doc%d", w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := 0; g < generations; g++ {
				gen := fmt.Sprintf("%s-g%d", doc, g)
				recs := records(gen, []float32{1, 0, 0}, []float32{1, 0, 0}, []float32{1, 0, 0})
				if err := idx.Upsert(ctx, "t1", ref(doc, created), recs); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			hits, err := idx.Search(ctx, "t1", []float32{1, 0, 0}, 100, MetricCosine)
			if err != nil {
				t.Error(err)
				return
			}
			perDoc := map[string]map[string]int{}
			for _, h := range hits {
				gen := h.ChunkID[:len(h.ChunkID)-2]
				if perDoc[h.DocumentID] == nil {
					perDoc[h.DocumentID] = map[string]int{}
				}
				perDoc[h.DocumentID][gen]++
			}
			for doc, gens := range perDoc {
				if len(gens) != 1 {
					t.Errorf("document %s mixes generations: %v", doc, gens)
					return
				}
				for _, n := range gens {
					if n != 3 {
						t.Errorf("document %s has %d chunks, want 3", doc, n)
						return
					}
				}
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	n, err := idx.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	m, err = ParseMetric("DOT")
	require.NoError(t, err)
	assert.Equal(t, MetricDot, m)

	_, err = ParseMetric("manhattan")
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestKeyedMutex_ReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}
