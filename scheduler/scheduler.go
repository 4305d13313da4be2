package scheduler

// Package scheduler runs the background jobs of the trading assistant:
// - polling for due reminders, dispatching notifications and advancing
//   recurring reminders to their next occurrence
// - checking watchlist price alerts against the latest quotes
//
// One scheduler instance is armed at process startup and stopped on
// shutdown. Jobs run in singleton mode so a slow pass is never
// overlapped by the next interval.

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trading_assistant/models"
	"trading_assistant/services/marketdata"
)

// Notifier delivers a notification on an alert channel. Implementations
// absorb transport failures and report them as false; they must return
// within a bounded time.
type Notifier interface {
	Notify(channel, title, body string, payload map[string]interface{}) bool
}

// QuoteSource provides the latest quote for a ticker. Satisfied by
// marketdata.Service.
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker, market string) (*marketdata.Quote, error)
}

// ReminderArchiver records each triggered reminder for later inspection.
// Satisfied by archive.Service.
type ReminderArchiver interface {
	RecordTriggeredReminder(r *models.Reminder)
}

// Scheduler manages the background jobs
type Scheduler struct {
	cron      *gocron.Scheduler
	db        *gorm.DB
	store     *ReminderStore
	notifier  Notifier
	quotes    QuoteSource
	archive   ReminderArchiver
	interval  time.Duration
	lookahead time.Duration

	now func() time.Time
}

// NewScheduler creates a scheduler instance. quotes may be nil when no
// market data provider is configured; the price alert job is then
// skipped. archive may be nil to skip trigger archiving.
func NewScheduler(db *gorm.DB, notifier Notifier, quotes QuoteSource, archive ReminderArchiver, interval, lookahead time.Duration) *Scheduler {
	return &Scheduler{
		cron:      gocron.NewScheduler(time.UTC),
		db:        db,
		store:     NewReminderStore(db),
		notifier:  notifier,
		quotes:    quotes,
		archive:   archive,
		interval:  interval,
		lookahead: lookahead,
		now:       time.Now,
	}
}

// Start registers and starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Poll for due reminders. SingletonMode guarantees a pass still
	// running when the next interval elapses is not run concurrently
	// with itself.
	s.cron.Every(s.interval).SingletonMode().Do(func() {
		s.CheckReminders()
	})

	// Check watchlist price alerts during market hours.
	if s.quotes != nil {
		s.cron.Every(s.interval).SingletonMode().Do(func() {
			if isMarketHours(s.now()) {
				s.CheckPriceAlerts()
			}
		})
	}

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// CheckReminders runs one polling pass: select due reminders, dispatch
// each one, mark it triggered and insert its continuation, all inside a
// single transaction. A store-level failure aborts the pass without
// committing; it is retried on the next interval because find-due always
// works from wall-clock now.
func (s *Scheduler) CheckReminders() {
	asOf := s.now()

	// Dispatch happens inside the transaction, so a pass can hold it
	// for up to the notifier's transport timeout per due reminder.
	// Bounded by the 10s HTTP client timeout and small batches.
	err := s.store.Transaction(func(tx *ReminderStore) error {
		due, err := tx.FindDue(asOf, s.lookahead)
		if err != nil {
			return err
		}

		for i := range due {
			s.processReminder(tx, &due[i], asOf)
		}
		return nil
	})
	if err != nil {
		log.Printf("Reminder pass aborted: %v", err)
	}
}

// processReminder handles a single due reminder. Errors here are logged
// and isolated: a failed delivery or continuation must not affect the
// rest of the batch, and the reminder is marked triggered regardless so
// it cannot re-fire.
func (s *Scheduler) processReminder(tx *ReminderStore, r *models.Reminder, asOf time.Time) {
	log.Printf("Triggering reminder %d: %s", r.ID, r.Title)

	payload := map[string]interface{}{"reminder_id": r.ID}
	if r.Ticker != "" {
		payload["ticker"] = r.Ticker
	}
	if !s.notifier.Notify(r.AlertType, r.Title, r.Description, payload) {
		log.Printf("Delivery failed for reminder %d on channel %s", r.ID, r.AlertType)
	}

	if err := tx.MarkTriggered(r, asOf); err != nil {
		log.Printf("Error marking reminder %d triggered: %v", r.ID, err)
		return
	}
	if s.archive != nil {
		s.archive.RecordTriggeredReminder(r)
	}

	if r.Recurrence == "" {
		return
	}
	next, ok := NextOccurrence(r.ReminderTime, r.Recurrence)
	if !ok {
		log.Printf("Reminder %d has unknown recurrence %q, not recreating", r.ID, r.Recurrence)
		return
	}
	if err := tx.Insert(r.NextOccurrenceOf(next)); err != nil {
		log.Printf("Error inserting next occurrence for reminder %d: %v", r.ID, err)
	}
}

// CheckPriceAlerts compares the latest quotes against watchlist alert
// thresholds and notifies on a crossing. A fired alert is flagged so it
// does not notify again on every poll.
func (s *Scheduler) CheckPriceAlerts() {
	var entries []models.WatchlistEntry
	if err := s.db.Where("is_active = ? AND alert_fired = ?", true, false).
		Find(&entries).Error; err != nil {
		log.Printf("Error loading watchlist: %v", err)
		return
	}

	ctx := context.Background()
	for i := range entries {
		entry := &entries[i]
		if entry.PriceAlertAbove == nil && entry.PriceAlertBelow == nil {
			continue
		}

		quote, err := s.quotes.GetQuote(ctx, entry.Ticker, entry.Market)
		if err != nil || quote == nil {
			continue
		}
		price := decimal.NewFromFloat(quote.Price)

		var crossed string
		switch {
		case entry.PriceAlertAbove != nil && price.GreaterThanOrEqual(*entry.PriceAlertAbove):
			crossed = "above " + entry.PriceAlertAbove.String()
		case entry.PriceAlertBelow != nil && price.LessThanOrEqual(*entry.PriceAlertBelow):
			crossed = "below " + entry.PriceAlertBelow.String()
		default:
			continue
		}

		s.notifier.Notify(models.AlertTypePush,
			entry.Ticker+" price alert",
			entry.Ticker+" is "+crossed+" (last "+price.StringFixed(2)+")",
			map[string]interface{}{"ticker": entry.Ticker, "price": quote.Price},
		)

		if err := s.db.Model(entry).Update("alert_fired", true).Error; err != nil {
			log.Printf("Error flagging alert for %s: %v", entry.Ticker, err)
			continue
		}
		log.Printf("Price alert fired for %s (%s)", entry.Ticker, crossed)
	}
}
