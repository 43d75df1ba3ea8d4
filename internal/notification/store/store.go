package store

import (
	"context"
	"time"
)

type OutboxEvent struct {
	EventID   string
	UserID    string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxOffset struct {
	LastEventTime time.Time
	LastEventID   string
}

type Notification struct {
	NotificationID string
	UserID         string
	Channel        string
	Recipient      string
	Status         string
	Attempts       int
	LastError      string
	CreatedAt      time.Time
}

type Store interface {
	ListOutboxEvents(ctx context.Context, offset OutboxOffset, limit int) ([]OutboxEvent, error)
	GetOffset(ctx context.Context) (OutboxOffset, error)
	UpdateOffset(ctx context.Context, offset OutboxOffset) error
	GetRecipient(ctx context.Context, userID string) (email string, err error)
	GetTemplate(ctx context.Context, templateID, lang, channel string) (string, error)
	InsertNotification(ctx context.Context, notification Notification) error
	MarkNotificationSent(ctx context.Context, notificationID string) error
	MarkNotificationFailed(ctx context.Context, notificationID, lastError string) error
	InsertDLQ(ctx context.Context, notificationID, reason string) error
}
