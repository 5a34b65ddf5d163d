package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/transport/http/response"
)

type SystemHandler struct {
	ragService *app.RAGService
}

func NewSystemHandler(ragService *app.RAGService) *SystemHandler {
	return &SystemHandler{ragService: ragService}
}

func (h *SystemHandler) Status(c *gin.Context) {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	status, err := h.ragService.Status(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err, "load status failed")
		return
	}
	response.OK(c, status)
}
