package notifications

import (
	"log"

	"trading_assistant/models"
)

// Pusher sends a push notification to a device. Satisfied by APNsService.
type Pusher interface {
	Send(deviceToken, title, body string, data map[string]interface{}) bool
}

// Broadcaster fans an event out to connected dashboard clients.
// Satisfied by realtime.Hub.
type Broadcaster interface {
	BroadcastAlert(title, body string, payload map[string]interface{})
}

// Recorder archives delivered notifications. Optional.
type Recorder interface {
	RecordDelivery(channel, title string, delivered bool)
}

// Dispatcher routes a notification to its alert channel. Delivery is
// best effort: a failed result is reported back to the caller but never
// raised as an error.
type Dispatcher struct {
	pusher      Pusher
	hub         Broadcaster
	recorder    Recorder
	deviceToken string
}

// NewDispatcher creates a dispatcher. hub and recorder may be nil.
func NewDispatcher(pusher Pusher, hub Broadcaster, recorder Recorder, deviceToken string) *Dispatcher {
	return &Dispatcher{
		pusher:      pusher,
		hub:         hub,
		recorder:    recorder,
		deviceToken: deviceToken,
	}
}

// Notify delivers a notification on the given channel
func (d *Dispatcher) Notify(channel, title, body string, payload map[string]interface{}) bool {
	if channel == "" {
		channel = models.AlertTypePush
	}

	var delivered bool
	switch channel {
	case models.AlertTypePush:
		delivered = d.pusher != nil && d.pusher.Send(d.deviceToken, title, body, payload)
	case models.AlertTypeInApp:
		if d.hub != nil {
			d.hub.BroadcastAlert(title, body, payload)
			delivered = true
		}
	default:
		log.Printf("Unknown alert channel %q for %q", channel, title)
	}

	if d.recorder != nil {
		d.recorder.RecordDelivery(channel, title, delivered)
	}
	return delivered
}
