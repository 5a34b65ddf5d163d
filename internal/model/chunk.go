package model

import (
	"encoding/json"
	"time"
)

// Chunk is the durable row of one indexed chunk. Document name and creation
// time are denormalized so a search never has to join the documents table.
// Embedding is stored as a JSON array of float32 for portability.
type Chunk struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID          string    `gorm:"size:64;not null;index:idx_chunk_tenant_doc,priority:1" json:"tenant_id"`
	DocumentID        string    `gorm:"size:36;not null;index:idx_chunk_tenant_doc,priority:2" json:"document_id"`
	DocumentName      string    `gorm:"size:256" json:"document_name"`
	DocumentCreatedAt time.Time `json:"document_created_at"`
	Ordinal           int       `gorm:"not null" json:"ordinal"`
	Locator           string    `gorm:"size:64" json:"locator,omitempty"`
	Content           string    `gorm:"type:text;not null" json:"content"`
	Embedding         string    `gorm:"type:longtext" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
