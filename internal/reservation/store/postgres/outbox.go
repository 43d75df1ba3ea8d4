package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// insertOutbox records an event for the realtime and notification pollers.
// It runs inside the same transaction as the state change it describes.
func insertOutbox(ctx context.Context, tx pgx.Tx, userID, eventType string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, user_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.NewString(), userID, eventType, body)
	return err
}
