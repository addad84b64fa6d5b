package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"listing-catalog/internal/cleanup"
	"listing-catalog/internal/config"
	"listing-catalog/internal/database"
	"listing-catalog/internal/dedupe"
	"listing-catalog/internal/handlers"
	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/ratelimit"
	"listing-catalog/internal/repository"
	"listing-catalog/internal/review"
	"listing-catalog/internal/scheduler"
	"listing-catalog/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config/catalog.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize the repository based on configuration
	repo, closeDB, err := openRepository(appConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	// Initialize Meilisearch (optional)
	var indexer lifecycle.Indexer
	var searchClient *search.Client
	if appConfig.Search.Meilisearch.Enabled {
		host := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
		apiKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")

		searchClient = search.NewClient(host, apiKey)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
		indexer = searchClient
	}

	// Wire the dedupe core
	matcher := dedupe.NewMatcher(repo)
	lifecycleSvc := lifecycle.NewService(repo, matcher, indexer)
	workflow := review.NewWorkflow(repo, lifecycleSvc)
	cleanupSvc := cleanup.NewService(repo, lifecycleSvc)

	// Rate limiter for the bulk endpoints
	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Nightly maintenance (bulk recheck + retention purge)
	appScheduler := scheduler.NewScheduler(workflow, cleanupSvc, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)

	listingHandler := handlers.NewListingHandler(repo, lifecycleSvc, matcher)
	reviewHandler := handlers.NewReviewHandler(workflow)
	adminHandler := handlers.NewAdminHandler(repo, cleanupSvc, appScheduler, rateLimiter)

	api := r.Group("/api")
	{
		// Listing intake and lifecycle
		api.POST("/listings", listingHandler.Create)
		api.GET("/listings", listingHandler.List)
		api.GET("/listings/:id", listingHandler.Get)
		api.PUT("/listings/:id", listingHandler.Update)
		api.POST("/listings/:id/archive", listingHandler.Archive)
		api.POST("/listings/:id/unarchive", listingHandler.Unarchive)
		api.POST("/listings/:id/delete", listingHandler.SoftDelete)
		api.POST("/listings/:id/restore", listingHandler.Restore)
		api.POST("/listings/:id/purge", reviewHandler.Purge)

		// Duplicate matching
		api.POST("/duplicates/recheck/:id", reviewHandler.Recheck)
		api.POST("/duplicates/recheck-all", rateLimitMiddleware(rateLimiter), reviewHandler.RecheckAll)
		api.GET("/duplicates/similar/:id", listingHandler.Similar)

		// Review workflow
		api.GET("/review/pending", reviewHandler.Pending)
		api.POST("/review/:id/approve", reviewHandler.Approve)
		api.POST("/review/:id/reject", reviewHandler.Reject)
		api.GET("/review/:id/compare", reviewHandler.Compare)

		// Admin
		admin := api.Group("/admin")
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.POST("/cleanup/run", rateLimitMiddleware(rateLimiter), adminHandler.RunCleanup)
			admin.GET("/cleanup/logs", adminHandler.GetPurgeLogs)
			admin.POST("/maintenance/trigger", adminHandler.TriggerMaintenance)
			admin.GET("/ratelimit/stats", adminHandler.GetRateLimitStats)
		}
	}

	port := getEnvOrConfig(appConfig.Server.Port, "PORT", "8080")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openRepository selects the configured persistence backend
func openRepository(cfg *config.Config) (repository.PropertyRepository, func(), error) {
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "postgres" {
		log.Println("Using PostgreSQL")
		pgCfg := cfg.Database.Postgres

		db, err := database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portString(pgCfg.Port), "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "catalog_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "catalog_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "catalog_db"),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(); err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}

	log.Println("Using MySQL with GORM")
	mysqlCfg := cfg.Database.MySQL

	db, err := database.NewGormDB(
		getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
		getEnvOrConfig(portString(mysqlCfg.Port), "DB_PORT", "3306"),
		getEnvOrConfig(mysqlCfg.User, "DB_USER", "catalog_user"),
		getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "catalog_pass"),
		getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "catalog_db"),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitSchema(); err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// rateLimitMiddleware returns a Gin middleware that enforces rate limiting
func rateLimitMiddleware(limiter *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.AllowRequest() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests. Please try again later.",
				"stats":   limiter.GetStats(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
