package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/middleware"
	"github.com/kendall-kelly/artisan-marketplace-api/routes"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
	"github.com/kendall-kelly/artisan-marketplace-api/utils"
)

func main() {
	// Basic logging
	log.Println("Starting Artisan Marketplace API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if err := initStorage(context.Background(), cfg); err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initStorage selects S3 when a bucket is configured and local media otherwise
func initStorage(ctx context.Context, cfg *config.Config) error {
	utils.UploadDir = cfg.MediaRoot

	if !cfg.HasS3() {
		log.Printf("AWS_S3_BUCKET not set, storing media under %s", cfg.MediaRoot)
		store := services.NewLocalStorage(cfg.MediaRoot)
		services.SetS3Service(store)
		services.InitImageService(store)
		return nil
	}

	store, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		return err
	}
	services.InitImageService(store)
	log.Printf("Storing media in S3 bucket %s", cfg.AWSS3Bucket)
	return nil
}

// setupRouter builds the application router. auth guards the API routes.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		routes.Register(v1, auth)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if cfg == nil || cfg.CORSOrigin == "" || cfg.CORSOrigin == "*" {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	for _, origin := range strings.Split(cfg.CORSOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, origin)
		}
	}
	corsCfg.AllowCredentials = true
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Artisan Marketplace API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Report the marketplace tables gorm knows about
	tables := make([]string, 0)
	for _, model := range []string{"users", "custom_design_requests", "orders", "order_statuses", "ratings"} {
		if db.Migrator().HasTable(model) {
			tables = append(tables, model)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
