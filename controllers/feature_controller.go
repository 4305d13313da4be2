package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trading_assistant/models"
)

// FeatureController handles feature flag requests
type FeatureController struct {
	db *gorm.DB
}

// NewFeatureController creates a new feature controller
func NewFeatureController(db *gorm.DB) *FeatureController {
	return &FeatureController{db: db}
}

// GetFeatures returns all features, seeding defaults if the table is empty
// GET /api/v1/features
func (fc *FeatureController) GetFeatures(c *gin.Context) {
	var features []models.Feature
	if err := fc.db.Order("category, name").Find(&features).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch features"})
		return
	}

	if len(features) == 0 {
		if err := models.SeedDefaultFeatures(fc.db); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed features"})
			return
		}
		if err := fc.db.Order("category, name").Find(&features).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch features"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"features": features})
}

type featureRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsEnabled   bool   `json:"is_enabled"`
	ConfigJSON  string `json:"config_json"`
}

// AddFeature creates a custom feature
// POST /api/v1/features
func (fc *FeatureController) AddFeature(c *gin.Context) {
	var request featureRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Feature
	if err := fc.db.Where("name = ?", request.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Feature already exists"})
		return
	}

	category := request.Category
	if category == "" {
		category = "custom"
	}

	feature := models.Feature{
		Name:        request.Name,
		Description: request.Description,
		Category:    category,
		IsEnabled:   request.IsEnabled,
		ConfigJSON:  request.ConfigJSON,
	}
	if err := fc.db.Create(&feature).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create feature"})
		return
	}

	c.JSON(http.StatusCreated, feature)
}

// ToggleFeature flips a feature's enabled state
// POST /api/v1/features/:id/toggle
func (fc *FeatureController) ToggleFeature(c *gin.Context) {
	var feature models.Feature
	if err := fc.db.First(&feature, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feature not found"})
		return
	}

	feature.IsEnabled = !feature.IsEnabled
	if err := fc.db.Save(&feature).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle feature"})
		return
	}

	c.JSON(http.StatusOK, feature)
}
