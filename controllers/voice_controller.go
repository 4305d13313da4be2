package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trading_assistant/models"
	"trading_assistant/services/voice"
)

// VoiceController turns voice transcripts into trading ideas
type VoiceController struct {
	db *gorm.DB
}

// NewVoiceController creates a new voice controller
func NewVoiceController(db *gorm.DB) *VoiceController {
	return &VoiceController{db: db}
}

type voiceRequest struct {
	Transcript string `json:"transcript" binding:"required"`
	Market     string `json:"market"`
}

// ProcessVoice parses a transcript and creates one idea per detected ticker
// POST /api/v1/voice/process
func (vc *VoiceController) ProcessVoice(c *gin.Context) {
	var request voiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market := request.Market
	if market == "" {
		market = "US"
	}

	parsed := voice.ParseIntent(request.Transcript)

	created := []models.TradingIdea{}
	for _, ticker := range parsed.Tickers {
		idea := models.TradingIdea{
			Ticker:          ticker,
			Market:          market,
			IdeaType:        parsed.IdeaType,
			EntryPrice:      decimalFrom(parsed.EntryPrice),
			TargetPrice:     decimalFrom(parsed.TargetPrice),
			StopLoss:        decimalFrom(parsed.StopLoss),
			Notes:           parsed.Notes,
			VoiceTranscript: request.Transcript,
			Status:          "active",
		}
		if err := vc.db.Create(&idea).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trading idea"})
			return
		}
		created = append(created, idea)
	}

	c.JSON(http.StatusOK, gin.H{
		"parsed":        parsed,
		"ideas_created": created,
	})
}

// ParseVoice parses a transcript without saving (preview mode)
// POST /api/v1/voice/parse
func (vc *VoiceController) ParseVoice(c *gin.Context) {
	var request voiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, voice.ParseIntent(request.Transcript))
}

func decimalFrom(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
