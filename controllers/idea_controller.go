package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trading_assistant/models"
)

// IdeaController handles trading idea requests
type IdeaController struct {
	db *gorm.DB
}

// NewIdeaController creates a new idea controller
func NewIdeaController(db *gorm.DB) *IdeaController {
	return &IdeaController{db: db}
}

// GetIdeas returns trading ideas, filtered by status and market
// GET /api/v1/ideas
func (ic *IdeaController) GetIdeas(c *gin.Context) {
	status := c.DefaultQuery("status", "active")
	market := c.Query("market")

	query := ic.db.Model(&models.TradingIdea{})
	if status != "all" {
		query = query.Where("status = ?", status)
	}
	if market != "" {
		query = query.Where("market = ?", market)
	}

	var ideas []models.TradingIdea
	if err := query.Order("created_at DESC").Find(&ideas).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ideas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

type ideaRequest struct {
	Ticker          string           `json:"ticker" binding:"required"`
	Market          string           `json:"market"`
	IdeaType        string           `json:"idea_type"`
	EntryPrice      *decimal.Decimal `json:"entry_price"`
	TargetPrice     *decimal.Decimal `json:"target_price"`
	StopLoss        *decimal.Decimal `json:"stop_loss"`
	Notes           string           `json:"notes"`
	VoiceTranscript string           `json:"voice_transcript"`
}

// CreateIdea creates a new trading idea
// POST /api/v1/ideas
func (ic *IdeaController) CreateIdea(c *gin.Context) {
	var request ideaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Market == "" {
		request.Market = "US"
	}
	if request.IdeaType == "" {
		request.IdeaType = "watch"
	}

	idea := models.TradingIdea{
		Ticker:          strings.ToUpper(request.Ticker),
		Market:          request.Market,
		IdeaType:        request.IdeaType,
		EntryPrice:      request.EntryPrice,
		TargetPrice:     request.TargetPrice,
		StopLoss:        request.StopLoss,
		Notes:           request.Notes,
		VoiceTranscript: request.VoiceTranscript,
		Status:          "active",
	}
	if err := ic.db.Create(&idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create idea"})
		return
	}

	c.JSON(http.StatusCreated, idea)
}

type ideaUpdateRequest struct {
	Ticker      *string          `json:"ticker"`
	Market      *string          `json:"market"`
	IdeaType    *string          `json:"idea_type"`
	EntryPrice  *decimal.Decimal `json:"entry_price"`
	TargetPrice *decimal.Decimal `json:"target_price"`
	StopLoss    *decimal.Decimal `json:"stop_loss"`
	Notes       *string          `json:"notes"`
	Status      *string          `json:"status"`
}

// UpdateIdea updates a trading idea
// PUT /api/v1/ideas/:id
func (ic *IdeaController) UpdateIdea(c *gin.Context) {
	var idea models.TradingIdea
	if err := ic.db.First(&idea, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
		return
	}

	var request ideaUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Ticker != nil {
		idea.Ticker = strings.ToUpper(*request.Ticker)
	}
	if request.Market != nil {
		idea.Market = *request.Market
	}
	if request.IdeaType != nil {
		idea.IdeaType = *request.IdeaType
	}
	if request.EntryPrice != nil {
		idea.EntryPrice = request.EntryPrice
	}
	if request.TargetPrice != nil {
		idea.TargetPrice = request.TargetPrice
	}
	if request.StopLoss != nil {
		idea.StopLoss = request.StopLoss
	}
	if request.Notes != nil {
		idea.Notes = *request.Notes
	}
	if request.Status != nil {
		idea.Status = *request.Status
	}

	if err := ic.db.Save(&idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update idea"})
		return
	}

	c.JSON(http.StatusOK, idea)
}

// DeleteIdea deletes a trading idea
// DELETE /api/v1/ideas/:id
func (ic *IdeaController) DeleteIdea(c *gin.Context) {
	var idea models.TradingIdea
	if err := ic.db.First(&idea, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
		return
	}

	if err := ic.db.Delete(&idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete idea"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Idea deleted"})
}
