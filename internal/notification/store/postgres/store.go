package postgres

import (
	"context"
	"errors"

	"bellatavola/internal/notification/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const consumerName = "notification"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListOutboxEvents(ctx context.Context, offset store.OutboxOffset, limit int) ([]store.OutboxEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, user_id, event_type, payload, created_at
		FROM outbox_events
		WHERE (created_at, event_id) > ($1, $2)
		ORDER BY created_at ASC, event_id ASC
		LIMIT $3
	`, offset.LastEventTime, offset.LastEventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.UserID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) GetOffset(ctx context.Context) (store.OutboxOffset, error) {
	var offset store.OutboxOffset
	row := s.pool.QueryRow(ctx, `
		SELECT last_event_time, last_event_id
		FROM outbox_offsets
		WHERE consumer = $1
	`, consumerName)
	err := row.Scan(&offset.LastEventTime, &offset.LastEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.OutboxOffset{}, nil
		}
		return store.OutboxOffset{}, err
	}
	return offset, nil
}

func (s *Store) UpdateOffset(ctx context.Context, offset store.OutboxOffset) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO outbox_offsets (consumer, last_event_time, last_event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer) DO UPDATE
		SET last_event_time = EXCLUDED.last_event_time, last_event_id = EXCLUDED.last_event_id
	`, consumerName, offset.LastEventTime, offset.LastEventID)
	return err
}

func (s *Store) GetRecipient(ctx context.Context, userID string) (string, error) {
	var email string
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(email, '') FROM users WHERE user_id = $1
	`, userID)
	if err := row.Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return email, nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID, lang, channel string) (string, error) {
	var body string
	row := s.pool.QueryRow(ctx, `
		SELECT body FROM notification_templates
		WHERE template_id = $1 AND lang = $2 AND channel = $3
	`, templateID, lang, channel)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return body, nil
}

func (s *Store) InsertNotification(ctx context.Context, notification store.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, user_id, channel, recipient, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, notification.NotificationID, notification.UserID, notification.Channel,
		notification.Recipient, notification.Status, notification.Attempts)
	return err
}

func (s *Store) MarkNotificationSent(ctx context.Context, notificationID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = 'sent' WHERE notification_id = $1
	`, notificationID)
	return err
}

func (s *Store) MarkNotificationFailed(ctx context.Context, notificationID, lastError string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'failed', attempts = attempts + 1, last_error = $2
		WHERE notification_id = $1
	`, notificationID, lastError)
	return err
}

func (s *Store) InsertDLQ(ctx context.Context, notificationID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications_dlq (notification_id, reason, created_at)
		VALUES ($1, $2, NOW())
	`, notificationID, reason)
	return err
}
