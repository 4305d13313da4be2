package models

import (
	"time"

	"gorm.io/gorm"
)

// Recurrence rules recognized by the reminder scheduler.
const (
	RecurrenceHourly      = "hourly"
	RecurrenceDaily       = "daily"
	RecurrenceWeekly      = "weekly"
	RecurrenceMarketOpen  = "market_open"
	RecurrenceMarketClose = "market_close"
)

// Alert channels for reminder delivery.
const (
	AlertTypePush  = "push"
	AlertTypeInApp = "in_app"
)

// Reminder represents a scheduled reminder. A recurring reminder spawns a
// new row per occurrence; IsTriggered is set exactly once per row and the
// scheduler never re-selects a triggered row.
type Reminder struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `json:"description"`
	ReminderTime time.Time  `gorm:"index;not null" json:"reminder_time"`
	Recurrence   string     `json:"recurrence"`                     // hourly, daily, weekly, market_open, market_close
	Ticker       string     `json:"ticker"`                         // optional: link to a stock
	AlertType    string     `gorm:"default:push" json:"alert_type"` // push, in_app
	IsTriggered  bool       `gorm:"default:false" json:"is_triggered"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	TriggeredAt  *time.Time `json:"triggered_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NextOccurrenceOf clones the descriptive fields of a reminder into a new
// untriggered row due at the given time.
func (r *Reminder) NextOccurrenceOf(at time.Time) *Reminder {
	return &Reminder{
		Title:        r.Title,
		Description:  r.Description,
		ReminderTime: at,
		Recurrence:   r.Recurrence,
		Ticker:       r.Ticker,
		AlertType:    r.AlertType,
		IsTriggered:  false,
		IsActive:     true,
	}
}

// MigrateReminderModels runs database migrations for reminder models
func MigrateReminderModels(db *gorm.DB) error {
	return db.AutoMigrate(&Reminder{})
}
