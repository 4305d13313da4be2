package scheduler

import (
	"time"

	"gorm.io/gorm"

	"trading_assistant/models"
)

// ReminderStore is the scheduler's gateway to persisted reminders. All
// reads and writes of one polling pass happen inside a single
// Transaction call, so a pass either commits as a whole or leaves no
// partial state behind.
type ReminderStore struct {
	db *gorm.DB
}

// NewReminderStore creates a reminder store over the given database
func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Transaction runs fn against a transaction-bound store. Commit and
// rollback are handled on every exit path, including panics.
func (s *ReminderStore) Transaction(fn func(tx *ReminderStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ReminderStore{db: tx})
	})
}

// FindDue returns active, untriggered reminders due within the lookahead
// window of asOf. Result ordering is not significant.
func (s *ReminderStore) FindDue(asOf time.Time, lookahead time.Duration) ([]models.Reminder, error) {
	window := asOf.Add(lookahead)
	var due []models.Reminder
	err := s.db.
		Where("is_active = ? AND is_triggered = ? AND reminder_time <= ?", true, false, window).
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

// MarkTriggered flags a reminder as triggered. Idempotent: repeating it
// on an already-triggered row changes nothing.
func (s *ReminderStore) MarkTriggered(r *models.Reminder, at time.Time) error {
	err := s.db.Model(r).Updates(map[string]interface{}{
		"is_triggered": true,
		"triggered_at": at,
	}).Error
	if err != nil {
		return err
	}
	r.IsTriggered = true
	r.TriggeredAt = &at
	return nil
}

// Insert creates a new reminder row
func (s *ReminderStore) Insert(r *models.Reminder) error {
	return s.db.Create(r).Error
}
