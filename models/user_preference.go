package models

import (
	"time"

	"gorm.io/gorm"
)

// UserPreference is a key/value setting for the single-user dashboard
type UserPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	Category  string    `json:"category"` // display, notifications, markets, trading
	UpdatedAt time.Time `json:"updated_at"`
}

// MigrateUserPreferenceModels runs database migrations for preference models
func MigrateUserPreferenceModels(db *gorm.DB) error {
	return db.AutoMigrate(&UserPreference{})
}
