package router

import (
	"database/sql"

	"poultry_farm_backend/internal/handlers"
	"poultry_farm_backend/internal/middleware"
	"poultry_farm_backend/internal/repositories"
	"poultry_farm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Services bundles every service the HTTP layer and the scheduler share.
type Services struct {
	Auth         services.AuthService
	Batch        services.BatchService
	DressedBatch services.DressedBatchService
	Feed         services.FeedService
	Analytics    services.AnalyticsService
	Alert        services.AlertService
}

// BuildServices wires repositories and services on top of a database handle.
func BuildServices(db *sql.DB) *Services {
	authRepo := repositories.NewAuthRepository(db)
	liveRepo := repositories.NewLiveBatchRepository(db)
	dressedRepo := repositories.NewDressedBatchRepository(db)
	relRepo := repositories.NewBatchRelationshipRepository(db)
	feedRepo := repositories.NewFeedInventoryRepository(db)
	consumptionRepo := repositories.NewFeedConsumptionRepository(db)
	alertRepo := repositories.NewFeedAlertRepository(db)

	return &Services{
		Auth:         services.NewAuthService(authRepo, db),
		Batch:        services.NewBatchService(liveRepo, dressedRepo, relRepo, db),
		DressedBatch: services.NewDressedBatchService(dressedRepo, relRepo, db),
		Feed:         services.NewFeedService(feedRepo, consumptionRepo, liveRepo, db),
		Analytics:    services.NewAnalyticsService(liveRepo, dressedRepo, feedRepo, consumptionRepo, alertRepo),
		Alert:        services.NewAlertService(alertRepo, feedRepo, consumptionRepo, liveRepo, db),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svcs *Services) {
	authHandler := handlers.NewAuthHandler(svcs.Auth)
	liveBatchHandler := handlers.NewLiveBatchHandler(svcs.Batch)
	dressedBatchHandler := handlers.NewDressedBatchHandler(svcs.DressedBatch)
	feedHandler := handlers.NewFeedHandler(svcs.Feed)
	analyticsHandler := handlers.NewAnalyticsHandler(svcs.Analytics)
	alertHandler := handlers.NewAlertHandler(svcs.Alert)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupLiveBatchRoutes(authenticated, liveBatchHandler)
		SetupDressedBatchRoutes(authenticated, dressedBatchHandler)
		SetupFeedRoutes(authenticated, feedHandler)
		SetupAnalyticsRoutes(authenticated, analyticsHandler)
		SetupAlertRoutes(authenticated, alertHandler)
	}
}
