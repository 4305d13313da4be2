package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trading_assistant/services/archive"
	"trading_assistant/services/sentiment"
)

// SentimentController handles sentiment requests
type SentimentController struct {
	sentiment *sentiment.Service
	archive   *archive.Service
}

// NewSentimentController creates a new sentiment controller. archiveService
// may be disabled; snapshots are then skipped.
func NewSentimentController(sentimentService *sentiment.Service, archiveService *archive.Service) *SentimentController {
	return &SentimentController{sentiment: sentimentService, archive: archiveService}
}

// GetRedditSentiment returns Reddit sentiment for a ticker
// GET /api/v1/sentiment/reddit/:ticker
func (sc *SentimentController) GetRedditSentiment(c *gin.Context) {
	ticker := c.Param("ticker")
	subreddits := strings.Split(c.DefaultQuery("subreddits", "wallstreetbets,stocks,options"), ",")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	report := sc.sentiment.RedditSentiment(c.Request.Context(), ticker, subreddits, limit)
	c.JSON(http.StatusOK, report)
}

// GetNewsSentiment returns news sentiment for a ticker
// GET /api/v1/sentiment/news/:ticker
func (sc *SentimentController) GetNewsSentiment(c *gin.Context) {
	ticker := c.Param("ticker")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	report := sc.sentiment.NewsSentiment(c.Request.Context(), ticker, limit)
	c.JSON(http.StatusOK, report)
}

// GetCombinedSentiment returns the blended Reddit + news score
// GET /api/v1/sentiment/combined/:ticker
func (sc *SentimentController) GetCombinedSentiment(c *gin.Context) {
	ticker := c.Param("ticker")
	ctx := c.Request.Context()

	reddit := sc.sentiment.RedditSentiment(ctx, ticker, nil, 0)
	news := sc.sentiment.NewsSentiment(ctx, ticker, 0)
	combined := sentiment.Combined(reddit, news)

	if sc.archive != nil {
		sc.archive.SaveSentimentSnapshot(combined)
	}

	c.JSON(http.StatusOK, combined)
}

// GetSentimentHistory returns archived sentiment snapshots for a ticker
// GET /api/v1/sentiment/history/:ticker
func (sc *SentimentController) GetSentimentHistory(c *gin.Context) {
	if sc.archive == nil || !sc.archive.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sentiment history requires the archive store"})
		return
	}

	ticker := c.Param("ticker")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	snapshots, err := sc.archive.RecentSnapshots(c.Request.Context(), ticker, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sentiment history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "snapshots": snapshots})
}

// GetTrending returns currently trending tickers on Reddit
// GET /api/v1/sentiment/trending
func (sc *SentimentController) GetTrending(c *gin.Context) {
	trending := sc.sentiment.TrendingTickers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"trending": trending})
}
