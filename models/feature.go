package models

import (
	"time"

	"gorm.io/gorm"
)

// Feature represents a toggleable feature flag for the dashboard
type Feature struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // analysis, data, automation, visualization
	IsEnabled   bool      `gorm:"default:false" json:"is_enabled"`
	ConfigJSON  string    `json:"config_json"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultFeatures are seeded on first migration
var DefaultFeatures = []Feature{
	{Name: "technical_indicators", Description: "RSI, MACD, Bollinger Bands, Moving Averages overlay on charts", Category: "analysis"},
	{Name: "options_flow", Description: "Track unusual options activity and large block trades", Category: "data"},
	{Name: "earnings_calendar", Description: "Upcoming earnings dates and consensus estimates", Category: "data"},
	{Name: "portfolio_tracker", Description: "Track your positions, P&L, and portfolio allocation", Category: "analysis"},
	{Name: "price_alerts", Description: "Custom price alerts with push notifications", Category: "automation"},
	{Name: "backtesting", Description: "Test trading strategies against historical data", Category: "analysis"},
	{Name: "heatmap", Description: "Sector and market cap heatmap visualization", Category: "visualization"},
	{Name: "correlation_matrix", Description: "Cross-asset correlation analysis", Category: "analysis"},
}

// MigrateFeatureModels runs database migrations for feature models
// (includes seeding default features)
func MigrateFeatureModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&Feature{}); err != nil {
		return err
	}
	return SeedDefaultFeatures(db)
}

// SeedDefaultFeatures inserts the default feature set if missing
func SeedDefaultFeatures(db *gorm.DB) error {
	for _, feat := range DefaultFeatures {
		var existing Feature
		err := db.Where("name = ?", feat.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		f := feat
		if err := db.Create(&f).Error; err != nil {
			return err
		}
	}
	return nil
}
