package store

import (
	"context"
	"errors"
	"time"

	authmodels "bellatavola/internal/auth/models"
)

var ErrSessionNotFound = errors.New("session not found")

type OutboxEvent struct {
	EventID   string
	UserID    string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxOffset marks how far a consumer has read. The event ID breaks
// ties between events sharing a timestamp.
type OutboxOffset struct {
	LastEventTime time.Time
	LastEventID   string
}

type Store interface {
	ListOutboxEvents(ctx context.Context, offset OutboxOffset, limit int) ([]OutboxEvent, error)
	GetOffset(ctx context.Context, consumer string) (OutboxOffset, error)
	UpdateOffset(ctx context.Context, consumer string, offset OutboxOffset) error
	CleanupOutbox(ctx context.Context, before time.Time) error
	GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}
