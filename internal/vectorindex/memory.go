package vectorindex

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
)

// Memory is an in-process index. Each tenant owns a shard whose contents are
// published as immutable snapshots, so searches never take a lock and always
// see either the old or the new chunk set of a document.
type Memory struct {
	dim   int
	locks *keyedMutex

	mu     sync.RWMutex
	shards map[string]*shard
}

type shard struct {
	mu   sync.Mutex // serializes publishers
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	docs  map[string]*docEntry
	total int
}

type docEntry struct {
	ref     DocumentRef
	records []Record
	norms   []float64
}

var emptySnapshot = &snapshot{docs: map[string]*docEntry{}}

func NewMemory(dim int) (*Memory, error) {
	if err := checkDimension(dim); err != nil {
		return nil, err
	}
	return &Memory{
		dim:    dim,
		locks:  newKeyedMutex(),
		shards: make(map[string]*shard),
	}, nil
}

func (m *Memory) Dimension() int { return m.dim }

func (m *Memory) Upsert(ctx context.Context, tenantID string, doc DocumentRef, records []Record) error {
	if err := validateUpsert(m.dim, tenantID, doc, records); err != nil {
		return err
	}
	unlock := m.locks.Lock(documentKey(tenantID, doc.ID))
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := &docEntry{
		ref:     doc,
		records: make([]Record, len(records)),
		norms:   make([]float64, len(records)),
	}
	for i, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		entry.records[i] = r
		entry.norms[i] = norm(r.Vector)
	}

	m.shardFor(tenantID, true).publish(func(docs map[string]*docEntry) {
		if len(entry.records) == 0 {
			delete(docs, doc.ID)
			return
		}
		docs[doc.ID] = entry
	})
	return nil
}

func (m *Memory) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	unlock := m.locks.Lock(documentKey(tenantID, documentID))
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s := m.shardFor(tenantID, false)
	if s == nil {
		return nil
	}
	s.publish(func(docs map[string]*docEntry) {
		delete(docs, documentID)
	})
	return nil
}

func (m *Memory) Search(ctx context.Context, tenantID string, query []float32, k int, metric Metric) ([]Hit, error) {
	if err := validateSearch(m.dim, tenantID, query, k); err != nil {
		return nil, err
	}
	s := m.shardFor(tenantID, false)
	if s == nil {
		return nil, nil
	}

	snap := s.snap.Load()
	qNorm := norm(query)
	top := newTopK(k)
	for _, entry := range snap.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range entry.records {
			r := &entry.records[i]
			top.offer(Hit{
				ChunkID:           r.ChunkID,
				DocumentID:        entry.ref.ID,
				DocumentName:      entry.ref.Name,
				DocumentCreatedAt: entry.ref.CreatedAt,
				Ordinal:           r.Ordinal,
				Text:              r.Text,
				Locator:           r.Locator,
				Score:             score(metric, query, qNorm, r.Vector, entry.norms[i]),
			})
		}
	}
	return top.sorted(), nil
}

func (m *Memory) Count(_ context.Context, tenantID string) (int, error) {
	s := m.shardFor(tenantID, false)
	if s == nil {
		return 0, nil
	}
	return s.snap.Load().total, nil
}

func (m *Memory) shardFor(tenantID string, create bool) *shard {
	m.mu.RLock()
	s, ok := m.shards[tenantID]
	m.mu.RUnlock()
	if ok || !create {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.shards[tenantID]; ok {
		return s
	}
	s = &shard{}
	s.snap.Store(emptySnapshot)
	m.shards[tenantID] = s
	return s
}

// publish copies the current document map, lets mutate edit the copy and
// swaps it in. Document entries themselves are never modified.
func (s *shard) publish(mutate func(docs map[string]*docEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := maps.Clone(s.snap.Load().docs)
	mutate(docs)
	total := 0
	for _, e := range docs {
		total += len(e.records)
	}
	s.snap.Store(&snapshot{docs: docs, total: total})
}
