package vectorindex

import (
	"context"
	"fmt"
	"time"

	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/repository"
)

const scanBatchSize = 500

// SQL keeps vectors as chunk rows in the relational store and scans them
// exactly at query time. Replacement happens inside a single transaction, so
// readers see the complete old or new chunk set.
type SQL struct {
	dim    int
	chunks *repository.ChunkRepository
	locks  *keyedMutex
}

func NewSQL(chunks *repository.ChunkRepository, dim int) (*SQL, error) {
	if err := checkDimension(dim); err != nil {
		return nil, err
	}
	return &SQL{dim: dim, chunks: chunks, locks: newKeyedMutex()}, nil
}

func (s *SQL) Dimension() int { return s.dim }

func (s *SQL) Upsert(ctx context.Context, tenantID string, doc DocumentRef, records []Record) error {
	if err := validateUpsert(s.dim, tenantID, doc, records); err != nil {
		return err
	}
	unlock := s.locks.Lock(documentKey(tenantID, doc.ID))
	defer unlock()

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	rows := make([]model.Chunk, len(records))
	for i, r := range records {
		rows[i] = model.Chunk{
			ID:                r.ChunkID,
			TenantID:          tenantID,
			DocumentID:        doc.ID,
			DocumentName:      doc.Name,
			DocumentCreatedAt: createdAt,
			Ordinal:           r.Ordinal,
			Locator:           r.Locator,
			Content:           r.Text,
		}
		rows[i].SetEmbedding(r.Vector)
	}
	return s.chunks.ReplaceDocument(ctx, tenantID, doc.ID, rows)
}

func (s *SQL) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	unlock := s.locks.Lock(documentKey(tenantID, documentID))
	defer unlock()
	return s.chunks.DeleteByDocument(ctx, tenantID, documentID)
}

func (s *SQL) Search(ctx context.Context, tenantID string, query []float32, k int, metric Metric) ([]Hit, error) {
	if err := validateSearch(s.dim, tenantID, query, k); err != nil {
		return nil, err
	}
	qNorm := norm(query)
	top := newTopK(k)
	err := s.chunks.ScanByTenant(ctx, tenantID, scanBatchSize, func(batch []model.Chunk) error {
		for i := range batch {
			c := &batch[i]
			vec := c.EmbeddingVector()
			if len(vec) != s.dim {
				return fmt.Errorf("%w: stored chunk %s has %d values", model.ErrDimensionMismatch, c.ID, len(vec))
			}
			top.offer(Hit{
				ChunkID:           c.ID,
				DocumentID:        c.DocumentID,
				DocumentName:      c.DocumentName,
				DocumentCreatedAt: c.DocumentCreatedAt,
				Ordinal:           c.Ordinal,
				Text:              c.Content,
				Locator:           c.Locator,
				Score:             score(metric, query, qNorm, vec, norm(vec)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return top.sorted(), nil
}

func (s *SQL) Count(ctx context.Context, tenantID string) (int, error) {
	n, err := s.chunks.CountByTenant(ctx, tenantID)
	return int(n), err
}
