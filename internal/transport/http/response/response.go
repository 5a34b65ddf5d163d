package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                    = 0
	CodeBadRequest            = 40000
	CodeUnauthorized          = 40100
	CodeNotFound              = 40400
	CodeDocumentNotFound      = 40401
	CodeConflict              = 40900
	CodePayloadTooLarge       = 41300
	CodeInternalServer        = 50000
	CodeServiceUnavailable    = 50300
	CodeEmbeddingUnavailable  = 50301
	CodeGenerationUnavailable = 50302
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// Accepted is OK for work that finishes in the background.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(202, APIResponse{
		Code:    CodeOK,
		Message: "accepted",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
