package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"gopherai-docqa/internal/chunker"
	"gopherai-docqa/internal/composer"
	"gopherai-docqa/internal/embedding"
	"gopherai-docqa/internal/ingest"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/repository"
	"gopherai-docqa/internal/retriever"
	"gopherai-docqa/internal/vectorindex"
)

var ErrEnqueue = errors.New("ingest job enqueue failed")

// JobQueue hands ingestion jobs to background workers.
type JobQueue interface {
	Enqueue(ctx context.Context, job ingest.Job) error
}

type RAGService struct {
	docRepo   *repository.DocumentRepository
	index     vectorindex.Index
	embedder  embedding.Embedder
	pipeline  *ingest.Pipeline
	retriever *retriever.Retriever
	composer  *composer.Composer
	queue     JobQueue
	indexName string
}

type RAGServiceDeps struct {
	Documents *repository.DocumentRepository
	Index     vectorindex.Index
	Embedder  embedding.Embedder
	Pipeline  *ingest.Pipeline
	Retriever *retriever.Retriever
	Composer  *composer.Composer
	Queue     JobQueue
	// IndexName is reported by Status, e.g. "sql" or "memory".
	IndexName string
}

func NewRAGService(deps RAGServiceDeps) *RAGService {
	return &RAGService{
		docRepo:   deps.Documents,
		index:     deps.Index,
		embedder:  deps.Embedder,
		pipeline:  deps.Pipeline,
		retriever: deps.Retriever,
		composer:  deps.Composer,
		queue:     deps.Queue,
		indexName: deps.IndexName,
	}
}

// SubmitInput is a document delivered by a source: an uploaded file or a
// scraped page, already converted to text.
type SubmitInput struct {
	TenantID string
	// DocumentID re-submits an existing ready or failed document when set.
	DocumentID  string
	Name        string
	ContentType model.ContentType
	SourceURL   string
	Text        string
	Pages       []chunker.Page
	SizeBytes   int64
}

// SubmitDocument records the document as pending and queues it for ingestion.
// The returned document is pending; its final status is observed later.
func (s *RAGService) SubmitDocument(ctx context.Context, input SubmitInput) (*model.Document, error) {
	doc, job, err := s.accept(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if tErr := s.docRepo.Transition(context.WithoutCancel(ctx), doc.TenantID, doc.ID, model.StatusFailed, "could not schedule ingestion", 0); tErr != nil {
			log.Printf("mark unscheduled document %s failed: %v", doc.ID, tErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrEnqueue, err)
	}
	return doc, nil
}

// IngestNow records the document and ingests it before returning. The CLI uses
// it; the HTTP API goes through the queue.
func (s *RAGService) IngestNow(ctx context.Context, input SubmitInput) (*model.Document, error) {
	doc, job, err := s.accept(ctx, input)
	if err != nil {
		return nil, err
	}
	_, runErr := s.pipeline.Run(ctx, job)
	final, err := s.docRepo.Get(context.WithoutCancel(ctx), doc.TenantID, doc.ID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return nil, model.ErrDocumentNotFound
	}
	return final, runErr
}

func (s *RAGService) accept(ctx context.Context, input SubmitInput) (*model.Document, ingest.Job, error) {
	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, ingest.Job{}, fmt.Errorf("%w: tenant is required", model.ErrInvalidInput)
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = model.ContentTypeText
	}
	if !contentType.Valid() {
		return nil, ingest.Job{}, fmt.Errorf("%w: unsupported content type %q", model.ErrInvalidInput, contentType)
	}
	if contentType == model.ContentTypeWebsite && strings.TrimSpace(input.SourceURL) == "" {
		return nil, ingest.Job{}, fmt.Errorf("%w: website documents need a source url", model.ErrInvalidInput)
	}

	size := input.SizeBytes
	hasText := strings.TrimSpace(input.Text) != ""
	if size <= 0 {
		size = int64(len(input.Text))
	}
	for _, p := range input.Pages {
		if strings.TrimSpace(p.Text) != "" {
			hasText = true
		}
		if input.SizeBytes <= 0 {
			size += int64(len(p.Text))
		}
	}
	if !hasText {
		return nil, ingest.Job{}, fmt.Errorf("%w: document has no text", model.ErrInvalidInput)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.TrimSpace(input.SourceURL)
	}
	if name == "" {
		name = "Untitled"
	}

	doc := &model.Document{
		ID:          strings.TrimSpace(input.DocumentID),
		TenantID:    tenantID,
		Name:        name,
		ContentType: contentType,
		SourceURL:   strings.TrimSpace(input.SourceURL),
		SizeBytes:   size,
		Status:      model.StatusPending,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
		if err := s.docRepo.Create(ctx, doc); err != nil {
			return nil, ingest.Job{}, err
		}
	} else if err := s.docRepo.Resubmit(ctx, doc); err != nil {
		return nil, ingest.Job{}, err
	}

	job := ingest.Job{
		TenantID:     doc.TenantID,
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		CreatedAt:    doc.CreatedAt,
		Text:         input.Text,
		Pages:        input.Pages,
	}
	return doc, job, nil
}

// DeleteDocument removes the document's chunks from the index, then its row.
// Deleting a document that does not exist succeeds.
func (s *RAGService) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	if tenantID == "" || documentID == "" {
		return model.ErrInvalidInput
	}
	if err := s.index.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("delete document chunks failed: %w", err)
	}
	return s.docRepo.Delete(ctx, tenantID, documentID)
}

func (s *RAGService) GetDocument(ctx context.Context, tenantID, documentID string) (*model.Document, error) {
	if tenantID == "" || documentID == "" {
		return nil, model.ErrInvalidInput
	}
	doc, err := s.docRepo.Get(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, model.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *RAGService) ListDocuments(ctx context.Context, tenantID string) ([]model.Document, error) {
	if tenantID == "" {
		return nil, model.ErrInvalidInput
	}
	docs, err := s.docRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

type AskInput struct {
	TenantID       string
	Question       string
	TopK           int
	MaxPerDocument int
	MinScore       float32
}

// Ask answers a question from the tenant's ready documents. When there is
// nothing to retrieve from, the deterministic no-context answer is returned
// without an error.
func (s *RAGService) Ask(ctx context.Context, input AskInput) (*composer.Answer, error) {
	question := strings.TrimSpace(input.Question)
	if input.TenantID == "" || question == "" {
		return nil, model.ErrInvalidInput
	}

	result, err := s.retriever.Retrieve(ctx, input.TenantID, question, retriever.Options{
		K:              input.TopK,
		MaxPerDocument: input.MaxPerDocument,
		MinScore:       input.MinScore,
	})
	if errors.Is(err, model.ErrNoContextAvailable) {
		if err != model.ErrNoContextAvailable {
			log.Printf("retrieval for tenant %s had no context: %v", input.TenantID, err)
		}
		return composer.NoContext(), nil
	}
	if err != nil {
		return nil, err
	}
	return s.composer.Compose(ctx, question, result)
}

type SystemStatus struct {
	Documents        int64            `json:"documents"`
	DocumentsByType  map[string]int64 `json:"documents_by_type"`
	DocumentsByState map[string]int64 `json:"documents_by_status"`
	Chunks           int              `json:"chunks"`
	EmbeddingModel   string           `json:"embedding_model"`
	Dimension        int              `json:"dimension"`
	IndexBackend     string           `json:"index_backend"`
}

// Status summarizes what the tenant has indexed.
func (s *RAGService) Status(ctx context.Context, tenantID string) (*SystemStatus, error) {
	if tenantID == "" {
		return nil, model.ErrInvalidInput
	}
	byType, err := s.docRepo.CountBy(ctx, tenantID, "content_type")
	if err != nil {
		return nil, err
	}
	byStatus, err := s.docRepo.CountBy(ctx, tenantID, "status")
	if err != nil {
		return nil, err
	}
	chunks, err := s.index.Count(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count indexed chunks failed: %w", err)
	}

	var total int64
	for _, n := range byType {
		total += n
	}
	return &SystemStatus{
		Documents:        total,
		DocumentsByType:  byType,
		DocumentsByState: byStatus,
		Chunks:           chunks,
		EmbeddingModel:   s.embedder.Name(),
		Dimension:        s.embedder.Dimension(),
		IndexBackend:     s.indexName,
	}, nil
}

// RecoverStale fails documents left behind by a previous process in any of
// statuses, so they can be re-submitted.
func (s *RAGService) RecoverStale(ctx context.Context, reason string, statuses ...model.DocumentStatus) error {
	n, err := s.docRepo.FailStale(ctx, reason, statuses...)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("marked %d interrupted documents as failed", n)
	}
	return nil
}
