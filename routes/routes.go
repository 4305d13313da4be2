package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trading_assistant/controllers"
	"trading_assistant/middleware"
	"trading_assistant/services/archive"
	"trading_assistant/services/marketdata"
	"trading_assistant/services/realtime"
	"trading_assistant/services/sentiment"
)

// Services bundles the shared service instances injected into handlers
type Services struct {
	Market    *marketdata.Service
	Sentiment *sentiment.Service
	Archive   *archive.Service
	Hub       *realtime.Hub
}

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, svcs Services) {
	// Initialize controllers
	ideaController := controllers.NewIdeaController(db)
	reminderController := controllers.NewReminderController(db)
	watchlistController := controllers.NewWatchlistController(db)
	featureController := controllers.NewFeatureController(db)
	preferenceController := controllers.NewPreferenceController(db)
	voiceController := controllers.NewVoiceController(db)
	marketController := controllers.NewMarketController(svcs.Market)
	sentimentController := controllers.NewSentimentController(svcs.Sentiment, svcs.Archive)

	// Proxy routes share one limiter so clients cannot exhaust the
	// upstream API quota.
	upstreamLimiter := middleware.NewRateLimiter(30, time.Minute)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Trading idea routes
		ideas := api.Group("/ideas")
		{
			ideas.GET("", ideaController.GetIdeas)
			ideas.POST("", ideaController.CreateIdea)
			ideas.PUT("/:id", ideaController.UpdateIdea)
			ideas.DELETE("/:id", ideaController.DeleteIdea)
		}

		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.GET("", reminderController.GetReminders)
			reminders.POST("", reminderController.CreateReminder)
			reminders.PUT("/:id", reminderController.UpdateReminder)
			reminders.DELETE("/:id", reminderController.DeleteReminder)
		}

		// Watchlist routes
		watchlist := api.Group("/watchlist")
		{
			watchlist.GET("", watchlistController.GetWatchlist)
			watchlist.POST("", watchlistController.AddToWatchlist)
			watchlist.PUT("/:id", watchlistController.UpdateWatchlistEntry)
			watchlist.DELETE("/:id", watchlistController.RemoveFromWatchlist)
		}

		// Feature flag routes
		features := api.Group("/features")
		{
			features.GET("", featureController.GetFeatures)
			features.POST("", featureController.AddFeature)
			features.POST("/:id/toggle", featureController.ToggleFeature)
		}

		// Preference routes
		preferences := api.Group("/preferences")
		{
			preferences.GET("", preferenceController.GetPreferences)
			preferences.PUT("", preferenceController.UpsertPreference)
		}

		// Voice routes
		voiceGroup := api.Group("/voice")
		{
			voiceGroup.POST("/process", voiceController.ProcessVoice)
			voiceGroup.POST("/parse", voiceController.ParseVoice)
		}

		// Market data proxy routes
		market := api.Group("/market", upstreamLimiter.Middleware())
		{
			market.GET("/quote/:ticker", marketController.GetQuote)
			market.GET("/intraday/:ticker", marketController.GetIntraday)
			market.GET("/options/:ticker", marketController.GetOptions)
			market.GET("/search", marketController.SearchStocks)
			market.GET("/status", marketController.GetMarketStatus)
		}

		// Sentiment proxy routes
		sentimentGroup := api.Group("/sentiment", upstreamLimiter.Middleware())
		{
			sentimentGroup.GET("/reddit/:ticker", sentimentController.GetRedditSentiment)
			sentimentGroup.GET("/news/:ticker", sentimentController.GetNewsSentiment)
			sentimentGroup.GET("/combined/:ticker", sentimentController.GetCombinedSentiment)
			sentimentGroup.GET("/history/:ticker", sentimentController.GetSentimentHistory)
			sentimentGroup.GET("/trending", sentimentController.GetTrending)
		}

		// Live alert stream
		if svcs.Hub != nil {
			api.GET("/stream", svcs.Hub.HandleWS)
		}
	}
}
