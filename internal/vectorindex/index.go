// Package vectorindex stores chunk vectors per tenant and answers exact
// nearest-neighbour queries over them.
package vectorindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopherai-docqa/internal/model"
)

type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

// ParseMetric accepts "cosine", "dot" or "" (cosine).
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricDot:
		return MetricDot, nil
	}
	return "", fmt.Errorf("%w: unknown similarity metric %q", model.ErrInvalidConfiguration, s)
}

// DocumentRef identifies the document a chunk set belongs to. CreatedAt breaks
// score ties in favour of newer documents.
type DocumentRef struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Record struct {
	ChunkID string
	Ordinal int
	Vector  []float32
	Text    string
	Locator string
}

type Hit struct {
	ChunkID           string    `json:"chunk_id"`
	DocumentID        string    `json:"document_id"`
	DocumentName      string    `json:"document_name"`
	DocumentCreatedAt time.Time `json:"-"`
	Ordinal           int       `json:"ordinal"`
	Text              string    `json:"text"`
	Locator           string    `json:"locator,omitempty"`
	Score             float32   `json:"score"`
}

// Index is a tenant-partitioned vector store. Implementations must be safe for
// concurrent use.
type Index interface {
	// Upsert atomically replaces every chunk of doc within the tenant.
	Upsert(ctx context.Context, tenantID string, doc DocumentRef, records []Record) error
	// DeleteDocument removes the document's chunks. Deleting an unknown
	// document is not an error.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
	// Search returns at most k hits from the tenant, best first.
	Search(ctx context.Context, tenantID string, query []float32, k int, metric Metric) ([]Hit, error)
	// Count returns how many chunks the tenant has indexed.
	Count(ctx context.Context, tenantID string) (int, error)
	Dimension() int
}

func validateUpsert(dim int, tenantID string, doc DocumentRef, records []Record) error {
	if tenantID == "" || doc.ID == "" {
		return fmt.Errorf("%w: tenant and document id are required", model.ErrInvalidInput)
	}
	for i := range records {
		if records[i].ChunkID == "" {
			return fmt.Errorf("%w: record %d has no chunk id", model.ErrInvalidInput, i)
		}
		if len(records[i].Vector) != dim {
			return fmt.Errorf("%w: record %d has %d values, index holds %d", model.ErrDimensionMismatch, i, len(records[i].Vector), dim)
		}
	}
	return nil
}

func validateSearch(dim int, tenantID string, query []float32, k int) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is required", model.ErrInvalidInput)
	}
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", model.ErrInvalidInput, k)
	}
	if len(query) != dim {
		return fmt.Errorf("%w: query has %d values, index holds %d", model.ErrDimensionMismatch, len(query), dim)
	}
	return nil
}

func checkDimension(dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: index dimension must be positive, got %d", model.ErrInvalidConfiguration, dim)
	}
	return nil
}
