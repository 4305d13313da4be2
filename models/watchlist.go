package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WatchlistEntry represents a tracked ticker with optional price alert
// thresholds. AlertFired flips once a threshold crossing has been
// notified so the alert does not fire again on every poll.
type WatchlistEntry struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Ticker          string           `gorm:"index;not null" json:"ticker"`
	Market          string           `gorm:"default:US" json:"market"`
	PriceAlertAbove *decimal.Decimal `gorm:"type:decimal(15,4)" json:"price_alert_above"`
	PriceAlertBelow *decimal.Decimal `gorm:"type:decimal(15,4)" json:"price_alert_below"`
	Notes           string           `json:"notes"`
	IsActive        bool             `gorm:"default:true" json:"is_active"`
	AlertFired      bool             `gorm:"default:false" json:"alert_fired"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (WatchlistEntry) TableName() string {
	return "watchlist"
}

// MigrateWatchlistModels runs database migrations for watchlist models
func MigrateWatchlistModels(db *gorm.DB) error {
	return db.AutoMigrate(&WatchlistEntry{})
}
