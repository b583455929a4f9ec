package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-sbt/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth *middleware.Authenticator) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Item endpoints (public read access)
		v1.GET("/items/:address", handler.GetItem)
		v1.GET("/items/:address/content", handler.GetItemContent)
		v1.GET("/items", handler.ListItems)

		// Collection endpoint (public read access)
		v1.GET("/collection", handler.GetCollection)

		// Changes endpoint (public read access)
		v1.GET("/changes", handler.GetChanges)

		// Message injection (requires authentication)
		v1.POST("/messages", middleware.Auth(auth), handler.SubmitMessage)
	}
}
