// Package ingest turns submitted document text into indexed chunks and keeps
// the document's status in step with the outcome.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gopherai-docqa/internal/chunker"
	"gopherai-docqa/internal/embedding"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/vectorindex"
)

const DefaultBatchSize = 10

var ErrNoText = errors.New("document has no extractable text")

// StatusStore persists document status transitions.
type StatusStore interface {
	Transition(ctx context.Context, tenantID, documentID string, to model.DocumentStatus, reason string, chunkCount int) error
}

// Job is one document to ingest. Pages, when present, take precedence over Text
// and give every chunk a page locator.
type Job struct {
	TenantID     string         `json:"tenant_id"`
	DocumentID   string         `json:"document_id"`
	DocumentName string         `json:"document_name"`
	CreatedAt    time.Time      `json:"created_at"`
	Text         string         `json:"text,omitempty"`
	Pages        []chunker.Page `json:"pages,omitempty"`
}

type Pipeline struct {
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	index     vectorindex.Index
	store     StatusStore
	batchSize int
}

func New(c *chunker.Chunker, embedder embedding.Embedder, index vectorindex.Index, store StatusStore, batchSize int) (*Pipeline, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder %s produces %d values, index holds %d",
			model.ErrDimensionMismatch, embedder.Name(), embedder.Dimension(), index.Dimension())
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{chunker: c, embedder: embedder, index: index, store: store, batchSize: batchSize}, nil
}

// Run ingests job and returns the number of chunks indexed. The document ends
// up ready with all its chunks searchable, or failed with none of them.
// Failures are not retried here; re-submitting the document starts over.
func (p *Pipeline) Run(ctx context.Context, job Job) (int, error) {
	if err := p.store.Transition(ctx, job.TenantID, job.DocumentID, model.StatusProcessing, "", 0); err != nil {
		return 0, fmt.Errorf("mark document processing failed: %w", err)
	}

	count, err := p.indexJob(ctx, job)
	if err == nil {
		err = p.store.Transition(ctx, job.TenantID, job.DocumentID, model.StatusReady, "", count)
		if err != nil {
			err = fmt.Errorf("mark document ready failed: %w", err)
		}
	}
	if err != nil {
		p.fail(ctx, job, err)
		return 0, err
	}
	log.Printf("ingest document %s/%s ready with %d chunks", job.TenantID, job.DocumentID, count)
	return count, nil
}

// fail removes anything indexed for the job and records the reason. It runs on
// a context detached from cancellation so an aborted job still cleans up.
func (p *Pipeline) fail(ctx context.Context, job Job, cause error) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := p.index.DeleteDocument(cleanupCtx, job.TenantID, job.DocumentID); err != nil {
		log.Printf("ingest rollback of %s/%s failed: %v", job.TenantID, job.DocumentID, err)
	}
	if err := p.store.Transition(cleanupCtx, job.TenantID, job.DocumentID, model.StatusFailed, cause.Error(), 0); err != nil {
		log.Printf("ingest mark %s/%s failed: %v", job.TenantID, job.DocumentID, err)
	}
	log.Printf("ingest document %s/%s failed: %v", job.TenantID, job.DocumentID, cause)
}

func (p *Pipeline) indexJob(ctx context.Context, job Job) (int, error) {
	spans := p.split(job)
	if len(spans) == 0 {
		return 0, ErrNoText
	}

	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = s.Text
	}
	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	records := make([]vectorindex.Record, len(spans))
	for i, s := range spans {
		records[i] = vectorindex.Record{
			ChunkID: uuid.NewString(),
			Ordinal: s.Ordinal,
			Vector:  vectors[i],
			Text:    s.Text,
			Locator: s.Locator,
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ref := vectorindex.DocumentRef{ID: job.DocumentID, Name: job.DocumentName, CreatedAt: job.CreatedAt}
	if err := p.index.Upsert(ctx, job.TenantID, ref, records); err != nil {
		return 0, fmt.Errorf("index chunks failed: %w", err)
	}
	return len(records), nil
}

func (p *Pipeline) split(job Job) []chunker.Span {
	var spans []chunker.Span
	if len(job.Pages) > 0 {
		pages := make([]chunker.Page, len(job.Pages))
		for i, pg := range job.Pages {
			pages[i] = chunker.Page{Number: pg.Number, Text: chunker.Normalize(pg.Text)}
		}
		for s := range p.chunker.SplitPages(pages) {
			spans = append(spans, s)
		}
		return spans
	}
	for s := range p.chunker.Split(chunker.Normalize(job.Text)) {
		spans = append(spans, s)
	}
	return spans
}

// embed sends texts to the embedder in batches and checks every vector.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+p.batchSize, len(texts))
		vecs, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d failed: %w", start, end-1, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), end-start)
		}
		if err := embedding.CheckDimensions(vecs, p.index.Dimension()); err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}
