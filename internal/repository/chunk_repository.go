package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"gopherai-docqa/internal/model"
)

const chunkInsertBatch = 100

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceDocument swaps the document's chunk rows for chunks in one transaction.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, tenantID, documentID string, chunks []model.Chunk) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND document_id = ?", tenantID, documentID).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("delete previous chunks failed: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(chunks, chunkInsertBatch).Error; err != nil {
			return fmt.Errorf("create chunks batch failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace document chunks failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Delete(&model.Chunk{}).Error
	if err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

// ScanByTenant feeds the tenant's chunks to fn in batches of batchSize rows.
func (r *ChunkRepository) ScanByTenant(ctx context.Context, tenantID string, batchSize int, fn func([]model.Chunk) error) error {
	var batch []model.Chunk
	res := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	if res.Error != nil {
		return fmt.Errorf("scan chunks by tenant failed: %w", res.Error)
	}
	return nil
}

func (r *ChunkRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Chunk{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks by tenant failed: %w", err)
	}
	return n, nil
}
