package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/chunker"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/pkg/pdfextract"
	"gopherai-docqa/internal/transport/http/response"
)

type DocumentHandler struct {
	ragService     *app.RAGService
	maxUploadBytes int64
}

type CreateDocumentRequest struct {
	// DocumentID re-submits an existing document.
	DocumentID  string         `json:"document_id" binding:"max=36"`
	Name        string         `json:"name" binding:"max=256"`
	ContentType string         `json:"content_type"`
	SourceURL   string         `json:"source_url" binding:"max=1024"`
	Content     string         `json:"content"`
	Pages       []chunker.Page `json:"pages"`
}

func NewDocumentHandler(ragService *app.RAGService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &DocumentHandler{ragService: ragService, maxUploadBytes: maxUploadBytes}
}

// Create queues a document whose text the caller has already extracted.
func (h *DocumentHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.ragService.SubmitDocument(c.Request.Context(), app.SubmitInput{
		TenantID:    tenantID,
		DocumentID:  req.DocumentID,
		Name:        req.Name,
		ContentType: model.ContentType(req.ContentType),
		SourceURL:   req.SourceURL,
		Text:        req.Content,
		Pages:       req.Pages,
	})
	if err != nil {
		writeError(c, err, "submit document failed")
		return
	}
	response.Accepted(c, doc)
}

// Upload accepts a multipart form with "file" (PDF) and optional "name" and
// "document_id", extracts text page by page and queues it.
func (h *DocumentHandler) Upload(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	extracted, err := pdfextract.ExtractPages(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text from PDF")
		return
	}
	if len(extracted) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "PDF contains no extractable text")
		return
	}
	pages := make([]chunker.Page, len(extracted))
	for i, p := range extracted {
		pages[i] = chunker.Page{Number: p.Number, Text: p.Text}
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	doc, err := h.ragService.SubmitDocument(c.Request.Context(), app.SubmitInput{
		TenantID:    tenantID,
		DocumentID:  strings.TrimSpace(c.PostForm("document_id")),
		Name:        name,
		ContentType: model.ContentTypePDF,
		Pages:       pages,
		SizeBytes:   file.Size,
	})
	if err != nil {
		writeError(c, err, "submit document failed")
		return
	}
	response.Accepted(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docs, err := h.ragService.ListDocuments(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	doc, err := h.ragService.GetDocument(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID := c.Param("id")
	if err := h.ragService.DeleteDocument(c.Request.Context(), tenantID, docID); err != nil {
		writeError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docID})
}
