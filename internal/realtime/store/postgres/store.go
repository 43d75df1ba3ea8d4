package postgres

import (
	"context"
	"errors"
	"time"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/realtime/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (s *Store) GetOffset(ctx context.Context, consumer string) (store.OutboxOffset, error) {
	var offset store.OutboxOffset
	row := s.pool.QueryRow(ctx, `
		SELECT last_event_time, last_event_id
		FROM outbox_offsets
		WHERE consumer = $1
	`, consumer)
	err := row.Scan(&offset.LastEventTime, &offset.LastEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.OutboxOffset{}, nil
		}
		return store.OutboxOffset{}, err
	}
	return offset, nil
}

func (s *Store) UpdateOffset(ctx context.Context, consumer string, offset store.OutboxOffset) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO outbox_offsets (consumer, last_event_time, last_event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer) DO UPDATE
		SET last_event_time = EXCLUDED.last_event_time, last_event_id = EXCLUDED.last_event_id
	`, consumer, offset.LastEventTime, offset.LastEventID)
	return err
}

// CleanupOutbox deletes events every consumer has read. Callers pass the
// minimum of all consumer offsets.
func (s *Store) CleanupOutbox(ctx context.Context, before time.Time) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM outbox_events WHERE created_at < $1`, before)
	return err
}

func (s *Store) GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error) {
	var session authmodels.Session
	var user authmodels.User
	row := s.pool.QueryRow(ctx, `
		SELECT s.access_token, s.refresh_token, s.user_id, s.expires_at, s.refresh_expires_at,
		       u.user_id, u.name, COALESCE(u.email, ''), u.profile_code, COALESCE(u.position_code, ''), u.created_at
		FROM sessions s
		JOIN users u ON u.user_id = s.user_id
		WHERE s.access_token = $1 AND s.expires_at > NOW()
	`, accessToken)
	err := row.Scan(
		&session.AccessToken, &session.RefreshToken, &session.UserID, &session.ExpiresAt, &session.RefreshExpiresAt,
		&user.UserID, &user.Name, &user.Email, &user.ProfileCode, &user.PositionCode, &user.Created,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authmodels.Session{}, authmodels.User{}, store.ErrSessionNotFound
		}
		return authmodels.Session{}, authmodels.User{}, err
	}
	return session, user, nil
}
