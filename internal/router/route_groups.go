package router

import (
	"poultry_farm_backend/internal/handlers"
	"poultry_farm_backend/internal/middleware"
	"poultry_farm_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the unauthenticated auth routes.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.Refresh)
}

// SetupAuthenticatedAuthRoutes sets up the auth routes requiring a valid token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.Profile)
	group.POST("/logout", authHandler.Logout)
}

// SetupLiveBatchRoutes sets up the live chicken batch routes.
func SetupLiveBatchRoutes(authenticatedGroup *gin.RouterGroup, liveBatchHandler *handlers.LiveBatchHandler) {
	liveBatchRoutes := authenticatedGroup.Group("/live-batches")
	liveBatchRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		liveBatchRoutes.POST("", liveBatchHandler.CreateLiveBatch)
		liveBatchRoutes.GET("", liveBatchHandler.GetLiveBatches)
		liveBatchRoutes.GET("/:id", liveBatchHandler.GetLiveBatchByID)
		liveBatchRoutes.PUT("/:id", liveBatchHandler.UpdateLiveBatch)
		liveBatchRoutes.POST("/:id/mortality", liveBatchHandler.RecordMortality)
		liveBatchRoutes.GET("/:id/mortality", liveBatchHandler.GetMortalityEvents)
		liveBatchRoutes.POST("/:id/process", liveBatchHandler.ProcessBatch)
	}

	// Deletion is restricted to admins and managers.
	authenticatedGroup.DELETE("/live-batches/:id",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager),
		liveBatchHandler.DeleteLiveBatch)

	authenticatedGroup.GET("/batches/:batchId/provenance",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker),
		liveBatchHandler.GetProvenance)
}

// SetupDressedBatchRoutes sets up the dressed chicken batch routes.
func SetupDressedBatchRoutes(authenticatedGroup *gin.RouterGroup, dressedBatchHandler *handlers.DressedBatchHandler) {
	dressedBatchRoutes := authenticatedGroup.Group("/dressed-batches")
	dressedBatchRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		dressedBatchRoutes.GET("", dressedBatchHandler.GetDressedBatches)
		dressedBatchRoutes.GET("/:id", dressedBatchHandler.GetDressedBatchByID)
		dressedBatchRoutes.PUT("/:id", dressedBatchHandler.UpdateDressedBatch)
		dressedBatchRoutes.GET("/:id/provenance", dressedBatchHandler.GetProvenance)
	}

	authenticatedGroup.DELETE("/dressed-batches/:id",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager),
		dressedBatchHandler.DeleteDressedBatch)

	authenticatedGroup.GET("/size-categories",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker),
		dressedBatchHandler.GetSizeCategories)
}

// SetupFeedRoutes sets up the feed inventory, assignment and consumption routes.
func SetupFeedRoutes(authenticatedGroup *gin.RouterGroup, feedHandler *handlers.FeedHandler) {
	feedRoutes := authenticatedGroup.Group("/feed")
	feedRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		feedRoutes.POST("", feedHandler.CreateFeedItem)
		feedRoutes.GET("", feedHandler.GetFeedItems)
		feedRoutes.GET("/:id", feedHandler.GetFeedItemByID)
		feedRoutes.PUT("/:id", feedHandler.UpdateFeedItem)
		feedRoutes.PATCH("/:id/quantity", feedHandler.AdjustFeedQuantity)
		feedRoutes.POST("/:id/assignments", feedHandler.AssignFeedToBatch)
		feedRoutes.GET("/:id/assignments", feedHandler.GetFeedAssignments)
	}

	authenticatedGroup.DELETE("/feed/:id",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager),
		feedHandler.DeleteFeedItem)

	authenticatedGroup.GET("/batches/:batchId/feed-assignments",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker),
		feedHandler.GetBatchAssignments)

	consumptionRoutes := authenticatedGroup.Group("/feed-consumption")
	consumptionRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		consumptionRoutes.POST("", feedHandler.RecordConsumption)
		consumptionRoutes.GET("", feedHandler.GetConsumptions)
		consumptionRoutes.DELETE("/:id", feedHandler.DeleteConsumption)
	}
}

// SetupAnalyticsRoutes sets up the analytics and reporting routes.
func SetupAnalyticsRoutes(authenticatedGroup *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	analyticsRoutes := authenticatedGroup.Group("/analytics")
	analyticsRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		analyticsRoutes.GET("/batches/:id/fcr", analyticsHandler.GetBatchFCR)
		analyticsRoutes.GET("/batches/:id/feed-summary", analyticsHandler.GetBatchFeedSummary)
		analyticsRoutes.GET("/feed-forecasts", analyticsHandler.GetFeedForecasts)
		analyticsRoutes.GET("/overview", analyticsHandler.GetFarmOverview)
	}
}

// SetupAlertRoutes sets up the feed alert routes.
func SetupAlertRoutes(authenticatedGroup *gin.RouterGroup, alertHandler *handlers.AlertHandler) {
	alertRoutes := authenticatedGroup.Group("/alerts")
	alertRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWorker))
	{
		alertRoutes.GET("", alertHandler.GetAlerts)
		alertRoutes.PATCH("/:id/acknowledge", alertHandler.AcknowledgeAlert)
	}

	// On-demand regeneration is restricted to admins and managers.
	authenticatedGroup.POST("/alerts/generate",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager),
		alertHandler.GenerateAlerts)
}
