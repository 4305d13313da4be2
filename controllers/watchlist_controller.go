package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trading_assistant/models"
)

// WatchlistController handles watchlist requests
type WatchlistController struct {
	db *gorm.DB
}

// NewWatchlistController creates a new watchlist controller
func NewWatchlistController(db *gorm.DB) *WatchlistController {
	return &WatchlistController{db: db}
}

// GetWatchlist returns all active watchlist entries
// GET /api/v1/watchlist
func (wc *WatchlistController) GetWatchlist(c *gin.Context) {
	query := wc.db.Model(&models.WatchlistEntry{})
	if c.DefaultQuery("active_only", "true") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var entries []models.WatchlistEntry
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"watchlist": entries})
}

type watchlistRequest struct {
	Ticker          string           `json:"ticker" binding:"required"`
	Market          string           `json:"market"`
	PriceAlertAbove *decimal.Decimal `json:"price_alert_above"`
	PriceAlertBelow *decimal.Decimal `json:"price_alert_below"`
	Notes           string           `json:"notes"`
}

// AddToWatchlist creates a watchlist entry
// POST /api/v1/watchlist
func (wc *WatchlistController) AddToWatchlist(c *gin.Context) {
	var request watchlistRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Market == "" {
		request.Market = "US"
	}

	entry := models.WatchlistEntry{
		Ticker:          strings.ToUpper(request.Ticker),
		Market:          request.Market,
		PriceAlertAbove: request.PriceAlertAbove,
		PriceAlertBelow: request.PriceAlertBelow,
		Notes:           request.Notes,
		IsActive:        true,
	}
	if err := wc.db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add watchlist entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

type watchlistUpdateRequest struct {
	PriceAlertAbove *decimal.Decimal `json:"price_alert_above"`
	PriceAlertBelow *decimal.Decimal `json:"price_alert_below"`
	Notes           *string          `json:"notes"`
	IsActive        *bool            `json:"is_active"`
	AlertFired      *bool            `json:"alert_fired"`
}

// UpdateWatchlistEntry updates alert thresholds and flags
// PUT /api/v1/watchlist/:id
func (wc *WatchlistController) UpdateWatchlistEntry(c *gin.Context) {
	var entry models.WatchlistEntry
	if err := wc.db.First(&entry, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist entry not found"})
		return
	}

	var request watchlistUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.PriceAlertAbove != nil {
		entry.PriceAlertAbove = request.PriceAlertAbove
		entry.AlertFired = false
	}
	if request.PriceAlertBelow != nil {
		entry.PriceAlertBelow = request.PriceAlertBelow
		entry.AlertFired = false
	}
	if request.Notes != nil {
		entry.Notes = *request.Notes
	}
	if request.IsActive != nil {
		entry.IsActive = *request.IsActive
	}
	if request.AlertFired != nil {
		entry.AlertFired = *request.AlertFired
	}

	if err := wc.db.Save(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist entry"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// RemoveFromWatchlist deletes a watchlist entry
// DELETE /api/v1/watchlist/:id
func (wc *WatchlistController) RemoveFromWatchlist(c *gin.Context) {
	var entry models.WatchlistEntry
	if err := wc.db.First(&entry, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist entry not found"})
		return
	}

	if err := wc.db.Delete(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove watchlist entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Watchlist entry removed"})
}
