package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradingIdea represents a trade idea captured manually or from a voice note
type TradingIdea struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Ticker          string           `gorm:"index;not null" json:"ticker"`
	Market          string           `gorm:"default:US" json:"market"`  // US or IN
	IdeaType        string           `gorm:"not null" json:"idea_type"` // buy, sell, watch, options
	EntryPrice      *decimal.Decimal `gorm:"type:decimal(15,4)" json:"entry_price"`
	TargetPrice     *decimal.Decimal `gorm:"type:decimal(15,4)" json:"target_price"`
	StopLoss        *decimal.Decimal `gorm:"type:decimal(15,4)" json:"stop_loss"`
	Notes           string           `json:"notes"`
	VoiceTranscript string           `json:"voice_transcript"`
	Status          string           `gorm:"default:active" json:"status"` // active, executed, expired, cancelled
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MigrateTradingIdeaModels runs database migrations for trading idea models
func MigrateTradingIdeaModels(db *gorm.DB) error {
	return db.AutoMigrate(&TradingIdea{})
}
