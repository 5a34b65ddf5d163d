package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/transport/http/middleware"
	"gopherai-docqa/internal/transport/http/response"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as fallback.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrInvalidConfiguration):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, model.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document not found")
	case errors.Is(err, model.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, response.CodeConflict, "document is still being ingested")
	case errors.Is(err, model.ErrEmbeddingUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeEmbeddingUnavailable, "embedding service unavailable")
	case errors.Is(err, model.ErrGenerationUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeGenerationUnavailable, "answer generation unavailable")
	case errors.Is(err, app.ErrEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "ingestion queue unavailable")
	default:
		log.Printf("%s %s: %s: %v", c.Request.Method, c.FullPath(), fallback, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func getTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantAny, exists := c.Get(middleware.ContextTenantIDKey)
	if !exists {
		return "", false
	}
	tenantID, ok := tenantAny.(string)
	return tenantID, ok && tenantID != ""
}
