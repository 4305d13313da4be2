package scheduler

import (
	"time"

	"trading_assistant/models"
)

// US market hours expressed as fixed UTC instants (09:30/16:00 ET).
// This is a fixed-offset approximation with no daylight-saving
// adjustment; reminder times are stored and compared in UTC.
const (
	marketOpenHourUTC    = 14
	marketOpenMinuteUTC  = 30
	marketCloseHourUTC   = 21
	marketCloseMinuteUTC = 0
)

// NextOccurrence computes the next trigger time for a recurring reminder.
// It is a pure function of its inputs. The market rules always land on a
// later calendar date than the input, skipping Saturdays and Sundays, so
// a reminder can never re-fire on the day it triggered. An unknown or
// empty rule yields no next occurrence.
func NextOccurrence(current time.Time, rule string) (time.Time, bool) {
	switch rule {
	case models.RecurrenceHourly:
		return current.Add(time.Hour), true
	case models.RecurrenceDaily:
		return current.Add(24 * time.Hour), true
	case models.RecurrenceWeekly:
		return current.Add(7 * 24 * time.Hour), true
	case models.RecurrenceMarketOpen:
		return nextWeekdayAt(current.UTC(), marketOpenHourUTC, marketOpenMinuteUTC), true
	case models.RecurrenceMarketClose:
		return nextWeekdayAt(current.UTC(), marketCloseHourUTC, marketCloseMinuteUTC), true
	}
	return time.Time{}, false
}

// nextWeekdayAt advances to the next day, skips over weekends, and pins
// the wall-clock time to the given hour and minute with seconds zeroed.
// The input must already be in UTC; times scanned from the database or
// taken from the host clock may carry another location.
func nextWeekdayAt(current time.Time, hour, minute int) time.Time {
	next := current.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
}

// isMarketHours reports whether t falls inside the approximated US
// trading session (weekdays, 14:30-21:00 UTC). The session is evaluated
// on the UTC clock whatever location t carries.
func isMarketHours(t time.Time) bool {
	t = t.UTC()
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= marketOpenHourUTC*60+marketOpenMinuteUTC &&
		minutes < marketCloseHourUTC*60+marketCloseMinuteUTC
}
