package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trading_assistant/models"
)

// ReminderController handles reminder CRUD requests
type ReminderController struct {
	db *gorm.DB
}

// NewReminderController creates a new reminder controller
func NewReminderController(db *gorm.DB) *ReminderController {
	return &ReminderController{db: db}
}

// GetReminders returns reminders ordered by trigger time
// GET /api/v1/reminders
func (rc *ReminderController) GetReminders(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") == "true"

	query := rc.db.Model(&models.Reminder{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var reminders []models.Reminder
	if err := query.Order("reminder_time ASC").Find(&reminders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reminders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

type reminderRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time" binding:"required"`
	Recurrence   string `json:"recurrence"`
	Ticker       string `json:"ticker"`
	AlertType    string `json:"alert_type"`
}

// CreateReminder creates a new reminder
// POST /api/v1/reminders
func (rc *ReminderController) CreateReminder(c *gin.Context) {
	var request reminderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminderTime, err := time.Parse(time.RFC3339, request.ReminderTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder_time, expected RFC3339"})
		return
	}

	alertType := request.AlertType
	if alertType == "" {
		alertType = models.AlertTypePush
	}

	reminder := models.Reminder{
		Title:        request.Title,
		Description:  request.Description,
		ReminderTime: reminderTime.UTC(),
		Recurrence:   request.Recurrence,
		Ticker:       request.Ticker,
		AlertType:    alertType,
		IsActive:     true,
	}
	if err := rc.db.Create(&reminder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder"})
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

type reminderUpdateRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ReminderTime *string `json:"reminder_time"`
	Recurrence   *string `json:"recurrence"`
	Ticker       *string `json:"ticker"`
	AlertType    *string `json:"alert_type"`
	IsActive     *bool   `json:"is_active"`
}

// UpdateReminder updates a reminder
// PUT /api/v1/reminders/:id
func (rc *ReminderController) UpdateReminder(c *gin.Context) {
	var reminder models.Reminder
	if err := rc.db.First(&reminder, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}

	var request reminderUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Title != nil {
		reminder.Title = *request.Title
	}
	if request.Description != nil {
		reminder.Description = *request.Description
	}
	if request.ReminderTime != nil {
		reminderTime, err := time.Parse(time.RFC3339, *request.ReminderTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder_time, expected RFC3339"})
			return
		}
		reminder.ReminderTime = reminderTime.UTC()
	}
	if request.Recurrence != nil {
		reminder.Recurrence = *request.Recurrence
	}
	if request.Ticker != nil {
		reminder.Ticker = *request.Ticker
	}
	if request.AlertType != nil {
		reminder.AlertType = *request.AlertType
	}
	if request.IsActive != nil {
		reminder.IsActive = *request.IsActive
	}

	if err := rc.db.Save(&reminder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reminder"})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// DeleteReminder deletes a reminder
// DELETE /api/v1/reminders/:id
func (rc *ReminderController) DeleteReminder(c *gin.Context) {
	var reminder models.Reminder
	if err := rc.db.First(&reminder, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}

	if err := rc.db.Delete(&reminder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}
