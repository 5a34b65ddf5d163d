package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/transport/http/response"
)

type QueryHandler struct {
	ragService *app.RAGService
}

type QueryRequest struct {
	Question       string  `json:"question" binding:"required,max=4000"`
	TopK           int     `json:"top_k" binding:"min=0,max=50"`
	MaxPerDocument int     `json:"max_per_document" binding:"min=0"`
	MinScore       float32 `json:"min_score"`
}

func NewQueryHandler(ragService *app.RAGService) *QueryHandler {
	return &QueryHandler{ragService: ragService}
}

// Ask answers from the tenant's documents. An empty knowledge base is not an
// error: the response carries the fixed no-context answer.
func (h *QueryHandler) Ask(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.ragService.Ask(c.Request.Context(), app.AskInput{
		TenantID:       tenantID,
		Question:       req.Question,
		TopK:           req.TopK,
		MaxPerDocument: req.MaxPerDocument,
		MinScore:       req.MinScore,
	})
	if err != nil {
		writeError(c, err, "query failed")
		return
	}
	response.OK(c, answer)
}
