package model

import (
	"fmt"
	"time"
)

type ContentType string

const (
	ContentTypePDF     ContentType = "pdf"
	ContentTypeDOCX    ContentType = "docx"
	ContentTypeText    ContentType = "text"
	ContentTypeWebsite ContentType = "website"
)

// Valid reports whether t is one of the supported source types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypePDF, ContentTypeDOCX, ContentTypeText, ContentTypeWebsite:
		return true
	}
	return false
}

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the metadata row of a submitted document. Its chunks live in the
// vector index, never here.
type Document struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string         `gorm:"size:64;not null;index" json:"tenant_id"`
	Name        string         `gorm:"size:256;not null" json:"name"`
	ContentType ContentType    `gorm:"size:16;not null" json:"content_type"`
	SourceURL   string         `gorm:"size:1024" json:"source_url,omitempty"`
	SizeBytes   int64          `json:"size_bytes"`
	Status      DocumentStatus `gorm:"size:16;not null;index" json:"status"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CanTransition reports whether a document may move from one status to another.
// Finished documents can only go back to pending, which is how re-ingestion
// starts. A pending document fails directly when its job cannot be scheduled.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusReady || to == StatusFailed
	case StatusReady, StatusFailed:
		return to == StatusPending
	}
	return false
}

// ValidateTransition is CanTransition returning ErrInvalidTransition with context.
func ValidateTransition(from, to DocumentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
