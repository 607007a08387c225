// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/caseboardhq/caseboard-go/internal/application/container"
	"github.com/caseboardhq/caseboard-go/internal/presentation/http/handlers"
	"github.com/caseboardhq/caseboard-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	recordHandlers := handlers.NewRecordHandlers(container.RecordService, container.SyncService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	streamHandlers := handlers.NewStreamHandlers(container.Broadcaster, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container)
	opsHandlers := handlers.NewOpsHandlers(container)

	r.GET("/health", healthHandlers.GetHealth)

	api := r.Group("/api/v1")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.GetAuthStatus)
			auth.POST("/realtime", authHandlers.PostRealtimeToken)
		}

		// Change-event stream
		api.GET("/updates", streamHandlers.GetUpdates)

		// Record store status
		api.GET("/db/status", healthHandlers.GetDatabaseStatus)

		// Case records
		recordsGroup := api.Group("/records")
		{
			// Read-Only Routes (Public)
			recordsGroup.GET("", recordHandlers.GetAllRecords)
			recordsGroup.GET("/:key", recordHandlers.GetRecordByKey)

			// Mutation Routes (Protected)
			mutations := recordsGroup.Group("/")
			mutations.Use(authHandlers.AuthMiddleware())
			{
				mutations.POST("/create", recordHandlers.CreateRecord)
				mutations.PUT("/:id", recordHandlers.UpdateRecord)
				mutations.DELETE("/:id", recordHandlers.DeleteRecord)
			}
		}
	}

	// Operator dashboard endpoints
	opsAPI := r.Group("/api/ops")
	opsAPI.Use(authHandlers.AuthMiddleware())
	{
		opsAPI.GET("/status", opsHandlers.GetStatus)
		opsAPI.GET("/ws", opsHandlers.StreamStatus)
		opsAPI.GET("/cache/stats", opsHandlers.GetCacheStats)
		opsAPI.POST("/cache/invalidate/:id", opsHandlers.PostInvalidateRecord)
		opsAPI.POST("/cache/invalidate-list", opsHandlers.PostInvalidateList)
		opsAPI.POST("/cache/reset", opsHandlers.PostCacheReset)
		opsAPI.POST("/refetch/:key", opsHandlers.PostRefetch)
		opsAPI.POST("/realtime/reset", opsHandlers.PostRealtimeReset)
		opsAPI.POST("/realtime/pause", opsHandlers.PostRealtimePause)
		opsAPI.POST("/realtime/resume", opsHandlers.PostRealtimeResume)
		opsAPI.GET("/logs/levels", opsHandlers.GetLogLevels)
		opsAPI.POST("/logs/levels", opsHandlers.SetLogLevel)
	}

	return r
}
