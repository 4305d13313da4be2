package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trading_assistant/models"
	"trading_assistant/services/marketdata"
)

type notifyCall struct {
	channel string
	title   string
	body    string
	payload map[string]interface{}
}

// fakeNotifier records deliveries and can simulate transport failure.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	fail  bool
}

func (f *fakeNotifier) Notify(channel, title, body string, payload map[string]interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{channel: channel, title: title, body: body, payload: payload})
	return !f.fail
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateReminderModels(db))
	require.NoError(t, models.MigrateWatchlistModels(db))
	return db
}

func newTestScheduler(t *testing.T, db *gorm.DB, notifier Notifier, at time.Time) *Scheduler {
	t.Helper()
	s := NewScheduler(db, notifier, nil, nil, 30*time.Second, 60*time.Second)
	s.now = func() time.Time { return at }
	return s
}

func TestCheckRemindersTriggersDueReminder(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	reminder := models.Reminder{
		Title:        "Check NVDA earnings",
		Description:  "Earnings call after close",
		ReminderTime: now.Add(-time.Minute),
		Ticker:       "NVDA",
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&reminder).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	require.Equal(t, 1, notifier.callCount())
	call := notifier.calls[0]
	assert.Equal(t, models.AlertTypePush, call.channel)
	assert.Equal(t, "Check NVDA earnings", call.title)
	assert.Equal(t, "NVDA", call.payload["ticker"])

	var stored models.Reminder
	require.NoError(t, db.First(&stored, reminder.ID).Error)
	assert.True(t, stored.IsTriggered)
	require.NotNil(t, stored.TriggeredAt)
	assert.True(t, stored.TriggeredAt.Equal(now))
}

func TestCheckRemindersAtMostOnce(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Reminder{
		Title:        "One shot",
		ReminderTime: now.Add(-time.Minute),
		AlertType:    models.AlertTypeInApp,
		IsActive:     true,
	}).Error)

	s := newTestScheduler(t, db, notifier, now)
	s.CheckReminders()
	s.CheckReminders()

	assert.Equal(t, 1, notifier.callCount())
}

func TestCheckRemindersSkipsInactiveAndFuture(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	paused := models.Reminder{
		Title:        "Paused",
		ReminderTime: now.Add(-time.Hour),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&paused).Error)
	require.NoError(t, db.Model(&paused).Update("is_active", false).Error)
	require.NoError(t, db.Create(&models.Reminder{
		Title:        "Far future",
		ReminderTime: now.Add(2 * time.Hour),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	assert.Zero(t, notifier.callCount())
}

func TestCheckRemindersLookaheadWindow(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	// Due in 45s: inside the 60s lookahead, fires on this pass.
	require.NoError(t, db.Create(&models.Reminder{
		Title:        "Inside window",
		ReminderTime: now.Add(45 * time.Second),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}).Error)
	// Due in 90s: just outside.
	require.NoError(t, db.Create(&models.Reminder{
		Title:        "Outside window",
		ReminderTime: now.Add(90 * time.Second),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	require.Equal(t, 1, notifier.callCount())
	assert.Equal(t, "Inside window", notifier.calls[0].title)
}

func TestCheckRemindersDailyContinuation(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	original := models.Reminder{
		Title:        "Morning scan",
		Description:  "Run the watchlist scan",
		ReminderTime: now.Add(-time.Minute),
		Recurrence:   models.RecurrenceDaily,
		Ticker:       "SPY",
		AlertType:    models.AlertTypeInApp,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&original).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	var all []models.Reminder
	require.NoError(t, db.Order("id").Find(&all).Error)
	require.Len(t, all, 2)

	assert.True(t, all[0].IsTriggered)

	next := all[1]
	assert.True(t, next.ReminderTime.Equal(original.ReminderTime.Add(24*time.Hour)))
	assert.Equal(t, original.Title, next.Title)
	assert.Equal(t, original.Description, next.Description)
	assert.Equal(t, original.Recurrence, next.Recurrence)
	assert.Equal(t, original.Ticker, next.Ticker)
	assert.Equal(t, original.AlertType, next.AlertType)
	assert.False(t, next.IsTriggered)
	assert.True(t, next.IsActive)
	assert.Nil(t, next.TriggeredAt)
}

type fakeArchiver struct {
	reminders []models.Reminder
}

func (f *fakeArchiver) RecordTriggeredReminder(r *models.Reminder) {
	f.reminders = append(f.reminders, *r)
}

func TestCheckRemindersArchivesTriggered(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	archiver := &fakeArchiver{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	reminder := models.Reminder{
		Title:        "Archive me",
		ReminderTime: now.Add(-time.Minute),
		Ticker:       "NVDA",
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&reminder).Error)

	s := newTestScheduler(t, db, notifier, now)
	s.archive = archiver
	s.CheckReminders()
	s.CheckReminders()

	// One archive record per trigger, carrying the triggered state.
	require.Len(t, archiver.reminders, 1)
	assert.Equal(t, reminder.ID, archiver.reminders[0].ID)
	assert.Equal(t, "Archive me", archiver.reminders[0].Title)
	assert.True(t, archiver.reminders[0].IsTriggered)
}

func TestCheckRemindersNonRecurringNotRecreated(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Reminder{
		Title:        "Once only",
		ReminderTime: now.Add(-time.Minute),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	var count int64
	require.NoError(t, db.Model(&models.Reminder{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckRemindersUnknownRecurrenceNotRecreated(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Reminder{
		Title:        "Bad rule",
		ReminderTime: now.Add(-time.Minute),
		Recurrence:   "fortnightly",
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}).Error)

	newTestScheduler(t, db, notifier, now).CheckReminders()

	var all []models.Reminder
	require.NoError(t, db.Find(&all).Error)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsTriggered)
}

func TestCheckRemindersMarksTriggeredOnFailedDelivery(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{fail: true}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	reminder := models.Reminder{
		Title:        "Flaky channel",
		ReminderTime: now.Add(-time.Minute),
		AlertType:    models.AlertTypePush,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&reminder).Error)

	s := newTestScheduler(t, db, notifier, now)
	s.CheckReminders()
	s.CheckReminders()

	// Delivery failed but the reminder is consumed, not retried.
	assert.Equal(t, 1, notifier.callCount())

	var stored models.Reminder
	require.NoError(t, db.First(&stored, reminder.ID).Error)
	assert.True(t, stored.IsTriggered)
}

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) GetQuote(ctx context.Context, ticker, market string) (*marketdata.Quote, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", ticker)
	}
	return &marketdata.Quote{Ticker: ticker, Market: market, Price: price}, nil
}

func TestCheckPriceAlertsFiresOnceOnCrossing(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	above := decimal.NewFromFloat(500)
	require.NoError(t, db.Create(&models.WatchlistEntry{
		Ticker:          "NVDA",
		Market:          "US",
		PriceAlertAbove: &above,
		IsActive:        true,
	}).Error)

	s := newTestScheduler(t, db, notifier, now)
	s.quotes = &fakeQuotes{prices: map[string]float64{"NVDA": 512.30}}

	s.CheckPriceAlerts()
	s.CheckPriceAlerts()

	require.Equal(t, 1, notifier.callCount())
	assert.Equal(t, models.AlertTypePush, notifier.calls[0].channel)

	var entry models.WatchlistEntry
	require.NoError(t, db.First(&entry).Error)
	assert.True(t, entry.AlertFired)
}

func TestCheckPriceAlertsNoCrossing(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	below := decimal.NewFromFloat(100)
	require.NoError(t, db.Create(&models.WatchlistEntry{
		Ticker:          "AAPL",
		Market:          "US",
		PriceAlertBelow: &below,
		IsActive:        true,
	}).Error)

	s := newTestScheduler(t, db, notifier, now)
	s.quotes = &fakeQuotes{prices: map[string]float64{"AAPL": 180}}

	s.CheckPriceAlerts()

	assert.Zero(t, notifier.callCount())
}

func TestCheckRemindersProcessesBatch(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Reminder{
			Title:        fmt.Sprintf("Reminder %d", i),
			ReminderTime: now.Add(-time.Duration(i+1) * time.Minute),
			AlertType:    models.AlertTypePush,
			IsActive:     true,
		}).Error)
	}

	newTestScheduler(t, db, notifier, now).CheckReminders()

	assert.Equal(t, 3, notifier.callCount())

	var remaining int64
	require.NoError(t, db.Model(&models.Reminder{}).
		Where("is_triggered = ?", false).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
