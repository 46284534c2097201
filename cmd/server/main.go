package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"poultry_farm_backend/internal/database"
	"poultry_farm_backend/internal/router"
	"poultry_farm_backend/internal/scheduler"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	utils.LoadDotEnv()
	utils.InitLogger()

	jwtSecret := utils.Getenv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	utils.InitJWTSecret(jwtSecret)

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "poultry_farm_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "poultry_farm_password")
	dbName := utils.Getenv("DB_NAME", "poultry_farm_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	dbMaxConns := utils.GetenvInt("DB_MAX_OPEN_CONNS", 25)

	db, err := database.Open(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbMaxConns)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	if err := database.ApplySchema(db, dbSchemaPath); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "name": dbName})

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	svcs := router.BuildServices(db)
	router.Setup(engine, svcs)

	sched, err := scheduler.New(svcs.Alert)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
