package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trading_assistant/config"
	"trading_assistant/models"
	"trading_assistant/routes"
	"trading_assistant/scheduler"
	"trading_assistant/services/archive"
	"trading_assistant/services/cache"
	"trading_assistant/services/marketdata"
	"trading_assistant/services/notifications"
	"trading_assistant/services/realtime"
	"trading_assistant/services/sentiment"
)

// dbInitialized tracks whether the database has been successfully
// initialized, so the /ready endpoint can report readiness while the
// connection is still being established in the background
var dbInitialized bool
var dbInitMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  Trading Assistant API - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up while the database initializes in the background
	setupHealthEndpoints(router)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server immediately so health checks pass during init
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database, services and routes in background
	var jobScheduler *scheduler.Scheduler
	var db *gorm.DB
	var archiveService *archive.Service
	var cacheService *cache.Service

	go func() {
		db, err = config.InitDB(cfg)
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		log.Println("Running database migrations...")
		if err := runMigrations(db); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		// Shared cache: Redis when reachable, in-process fallback
		// otherwise. No service below may fail because of it.
		cacheService = cache.NewService(cfg.RedisURL)

		marketService := marketdata.NewService(
			cfg.AlphaVantageAPIKey, cfg.AlphaVantageBaseURL,
			cacheService, cfg.MarketDataCacheTTL)

		sentimentService := sentiment.NewService(cacheService, sentiment.Options{
			RedditClientID:     cfg.RedditClientID,
			RedditClientSecret: cfg.RedditClientSecret,
			RedditUserAgent:    cfg.RedditUserAgent,
			NewsAPIKey:         cfg.NewsAPIKey,
			NewsBaseURL:        cfg.NewsAPIBaseURL,
			SentimentTTL:       cfg.SentimentCacheTTL,
			NewsTTL:            cfg.NewsCacheTTL,
		})

		archiveService, err = archive.NewService(cfg.MongoURI)
		if err != nil {
			log.Printf("Archive store unavailable, continuing without it: %v", err)
			archiveService, _ = archive.NewService("")
		}

		hub := realtime.NewHub()
		go hub.Run()

		apns := notifications.NewAPNsService(
			cfg.APNsKeyID, cfg.APNsTeamID, cfg.APNsBundleID, cfg.APNsKeyPath)
		dispatcher := notifications.NewDispatcher(apns, hub, archiveService, cfg.APNsDeviceToken)

		// Mark database as ready
		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, db, routes.Services{
			Market:    marketService,
			Sentiment: sentimentService,
			Archive:   archiveService,
			Hub:       hub,
		})

		// Start background scheduler
		var quotes scheduler.QuoteSource
		if cfg.AlphaVantageAPIKey != "" {
			quotes = marketService
		}
		jobScheduler = scheduler.NewScheduler(db, dispatcher, quotes, archiveService, cfg.PollInterval, cfg.Lookahead)
		jobScheduler.Start()

		log.Println("Application fully initialized with database")
	}()

	// Graceful shutdown
	gracefulShutdown(server, func() {
		if jobScheduler != nil {
			jobScheduler.Stop()
		}
		if archiveService != nil {
			archiveService.Close()
		}
		if cacheService != nil {
			cacheService.Close()
		}
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
				log.Println("Database connection closed")
			}
		}
	})
}

// runMigrations runs all database migrations
func runMigrations(db *gorm.DB) error {
	if err := models.MigrateReminderModels(db); err != nil {
		return err
	}
	if err := models.MigrateTradingIdeaModels(db); err != nil {
		return err
	}
	if err := models.MigrateWatchlistModels(db); err != nil {
		return err
	}
	// Includes seeding default features
	if err := models.MigrateFeatureModels(db); err != nil {
		return err
	}
	return models.MigrateUserPreferenceModels(db)
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trading Assistant API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	// Startup probe
	router.GET("/startup", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "started",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/startup" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown waits for a signal, then stops background work and
// drains the HTTP server
func gracefulShutdown(server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown completed")
}
