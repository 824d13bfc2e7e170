package routes

import (
	"log/slog"
	"net/http"

	"qbank/handlers"
	"qbank/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, questionHandler *handlers.QuestionHandler, logger *slog.Logger) {
	router.Use(middleware.RequestID(), middleware.RequestLogger(logger), middleware.CORS())

	// API routes
	api := router.Group("/api")
	{
		api.POST("/categories", questionHandler.CreateCategory)

		categories := api.Group("/categories/:category")
		{
			categories.POST("/questions", questionHandler.CreateQuestion)
			categories.GET("/questions/:identifier", questionHandler.GetQuestion)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
