package notifications

import (
	"context"
	"encoding/json"

	"socialhub/internal/middleware"
	"socialhub/internal/observability"
)

// Event types delivered to clients.
const (
	EventCommentCreated = "comment_created"
	EventNewFollower    = "new_follower"
)

// Event is the envelope written to the socket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Dispatcher routes user events through Redis when available, otherwise straight
// to the local hub.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

// NewDispatcher builds a Dispatcher. Either argument may be nil.
func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

// PublishUserEvent delivers eventType to every connection of userID. Delivery is
// best-effort and failures are only logged.
func (d *Dispatcher) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	if d == nil {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal event", "event", eventType, "error", err)
		return
	}
	message := string(data)

	if d.notifier.Enabled() {
		err := d.notifier.PublishUser(ctx, userID, message)
		if err == nil {
			observability.NotificationsPublished.WithLabelValues(eventType, "redis").Inc()
			return
		}
		middleware.Logger.WarnContext(ctx, "redis publish failed, delivering locally",
			"event", eventType, "target_user_id", userID, "error", err)
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, message)
		observability.NotificationsPublished.WithLabelValues(eventType, "local").Inc()
	}
}
