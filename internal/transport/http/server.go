package http

import (
	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/bootstrap"
	"gopherai-docqa/internal/transport/http/handler"
	"gopherai-docqa/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = int64(app.Config.App.MaxUploadMB) << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.RAG, int64(app.Config.App.MaxUploadMB)<<20)
	queryHandler := handler.NewQueryHandler(app.RAG)
	systemHandler := handler.NewSystemHandler(app.RAG)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	documents := v1.Group("/documents")
	documents.POST("", documentHandler.Create)
	documents.POST("/upload", documentHandler.Upload)
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)

	v1.POST("/query", queryHandler.Ask)
	v1.GET("/system/status", systemHandler.Status)

	return router
}
