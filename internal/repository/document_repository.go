package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gopherai-docqa/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// Get returns nil, nil when the tenant has no such document.
func (r *DocumentRepository) Get(ctx context.Context, tenantID, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByTenant(ctx context.Context, tenantID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

// Resubmit moves a finished document back to pending with new metadata.
func (r *DocumentRepository) Resubmit(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Document
		if err := tx.Where("id = ? AND tenant_id = ?", doc.ID, doc.TenantID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrDocumentNotFound
			}
			return fmt.Errorf("load document failed: %w", err)
		}
		if err := model.ValidateTransition(current.Status, model.StatusPending); err != nil {
			return err
		}
		doc.CreatedAt = current.CreatedAt
		doc.Status = model.StatusPending
		doc.Error = ""
		doc.ChunkCount = 0
		if err := tx.Save(doc).Error; err != nil {
			return fmt.Errorf("resubmit document failed: %w", err)
		}
		return nil
	})
}

// Transition moves a document to status `to`, enforcing the status state
// machine. reason is stored as the error text and chunkCount as the number of
// indexed chunks.
func (r *DocumentRepository) Transition(ctx context.Context, tenantID, id string, to model.DocumentStatus, reason string, chunkCount int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.Document
		if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrDocumentNotFound
			}
			return fmt.Errorf("load document failed: %w", err)
		}
		if err := model.ValidateTransition(doc.Status, to); err != nil {
			return err
		}
		err := tx.Model(&doc).Updates(map[string]interface{}{
			"status":      to,
			"error":       reason,
			"chunk_count": chunkCount,
		}).Error
		if err != nil {
			return fmt.Errorf("update document status failed: %w", err)
		}
		return nil
	})
}

// FailStale marks every document in one of statuses as failed. It runs at
// startup, before any worker picks up jobs, to release documents whose
// ingestion died with the previous process.
func (r *DocumentRepository) FailStale(ctx context.Context, reason string, statuses ...model.DocumentStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("status IN ?", statuses).
		Updates(map[string]interface{}{"status": model.StatusFailed, "error": reason, "chunk_count": 0})
	if res.Error != nil {
		return 0, fmt.Errorf("fail stale documents failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// CountBy groups the tenant's documents by column ("content_type" or "status").
func (r *DocumentRepository) CountBy(ctx context.Context, tenantID, column string) (map[string]int64, error) {
	if column != "content_type" && column != "status" {
		return nil, fmt.Errorf("%w: cannot group documents by %q", model.ErrInvalidInput, column)
	}
	var rows []GroupCount
	err := r.db.WithContext(ctx).Model(&model.Document{}).
		Select(column+" AS `key`, COUNT(*) AS `count`").
		Where("tenant_id = ?", tenantID).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count documents by %s failed: %w", column, err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}
