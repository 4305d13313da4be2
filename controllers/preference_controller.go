package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trading_assistant/models"
)

// PreferenceController handles user preference requests
type PreferenceController struct {
	db *gorm.DB
}

// NewPreferenceController creates a new preference controller
func NewPreferenceController(db *gorm.DB) *PreferenceController {
	return &PreferenceController{db: db}
}

// GetPreferences returns all preferences, optionally filtered by category
// GET /api/v1/preferences
func (pc *PreferenceController) GetPreferences(c *gin.Context) {
	query := pc.db.Model(&models.UserPreference{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var preferences []models.UserPreference
	if err := query.Order("key").Find(&preferences).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": preferences})
}

type preferenceRequest struct {
	Key      string `json:"key" binding:"required"`
	Value    string `json:"value" binding:"required"`
	Category string `json:"category"`
}

// UpsertPreference creates or replaces a preference by key
// PUT /api/v1/preferences
func (pc *PreferenceController) UpsertPreference(c *gin.Context) {
	var request preferenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := models.UserPreference{
		Key:      request.Key,
		Value:    request.Value,
		Category: request.Category,
	}
	err := pc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "category", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preference"})
		return
	}

	c.JSON(http.StatusOK, pref)
}
