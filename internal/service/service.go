// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"errors"

	"socialhub/internal/models"
)

// EventPublisher delivers realtime events to a user's open sockets.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any)
}

func publish(ctx context.Context, events EventPublisher, userID uint, eventType string, payload any) {
	if events == nil {
		return
	}
	events.PublishUserEvent(ctx, userID, eventType, payload)
}

func hasCode(err error, code string) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
