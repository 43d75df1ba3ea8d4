package postgres

import (
	"context"
	"encoding/json"
	"errors"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/delivery/models"
	"bellatavola/internal/delivery/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateOrder(ctx context.Context, input store.CreateInput) (models.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var total int64
	for _, item := range input.Items {
		total += item.Price * int64(item.Quantity)
	}

	orderID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO delivery_orders (order_id, user_id, status, total_cents, address, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, orderID, input.UserID, models.StatusPending, total, input.Address)
	if err != nil {
		return models.Order{}, err
	}

	for _, item := range input.Items {
		category := item.Category
		if !models.ValidCategory(category) {
			category = models.CategoryKitchen
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO delivery_items (item_id, order_id, name, quantity, price_cents, category, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), orderID, item.Name, item.Quantity, item.Price, category, models.ItemPending)
		if err != nil {
			return models.Order{}, err
		}
	}

	order, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *Store) ListPending(ctx context.Context) ([]models.Order, error) {
	return s.listByStatus(ctx, models.StatusPending)
}

func (s *Store) ListConfirmed(ctx context.Context) ([]models.Order, error) {
	return s.listByStatus(ctx, models.StatusConfirmed)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	return fetchOrder(ctx, s.pool, orderID)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, action string) (models.Order, error) {
	newStatus, ok := store.OrderStatusForAction(action)
	if !ok {
		return models.Order{}, store.ErrInvalidTransition
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !store.ValidOrderTransition(action, current.Status) {
		err = store.ErrInvalidTransition
		return models.Order{}, err
	}
	if action == "ready" && !models.AllItemsReady(current.Items) {
		err = store.ErrItemsNotReady
		return models.Order{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_orders SET status = $2 WHERE order_id = $1
	`, orderID, newStatus)
	if err != nil {
		return models.Order{}, err
	}

	updated, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *Store) UpdateItemStatus(ctx context.Context, orderID, itemID, action string) (models.Order, error) {
	newStatus, ok := store.ItemStatusForAction(action)
	if !ok {
		return models.Order{}, store.ErrInvalidTransition
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var currentStatus string
	row := tx.QueryRow(ctx, `
		SELECT status FROM delivery_items WHERE item_id = $1 AND order_id = $2
	`, itemID, orderID)
	if err = row.Scan(&currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrItemNotFound
		}
		return models.Order{}, err
	}
	if !store.ValidItemTransition(action, currentStatus) {
		err = store.ErrInvalidTransition
		return models.Order{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_items SET status = $3 WHERE item_id = $1 AND order_id = $2
	`, itemID, orderID, newStatus)
	if err != nil {
		return models.Order{}, err
	}

	updated, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *Store) Cancel(ctx context.Context, orderID, userID string) (models.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if current.UserID != userID {
		err = store.ErrOrderNotFound
		return models.Order{}, err
	}
	if !store.ValidOrderTransition("cancel", current.Status) {
		err = store.ErrInvalidTransition
		return models.Order{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_orders SET status = $2 WHERE order_id = $1
	`, orderID, models.StatusCancelled)
	if err != nil {
		return models.Order{}, err
	}

	updated, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *Store) ConfirmPayment(ctx context.Context, orderID string) (models.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !store.ValidOrderTransition("confirm", current.Status) {
		err = store.ErrInvalidTransition
		return models.Order{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_orders SET status = $2 WHERE order_id = $1
	`, orderID, models.StatusConfirmed)
	if err != nil {
		return models.Order{}, err
	}

	updated, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     updated.OrderID,
		"order_number": updated.OrderNumber,
		"total_cents":  updated.Total,
		"status":       updated.Status,
	})
	if err != nil {
		return models.Order{}, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, user_id, event_type, payload, created_at)
		VALUES ($1, $2, 'delivery_payment_confirmed', $3, NOW())
	`, uuid.NewString(), updated.UserID, payload)
	if err != nil {
		return models.Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return updated, nil
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

// querier lets fetch helpers run against the pool or a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) listByStatus(ctx context.Context, status string) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, order_number, user_id, status, total_cents, COALESCE(address, ''), created_at
		FROM delivery_orders
		WHERE status = $1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.OrderID, &o.OrderNumber, &o.UserID, &o.Status, &o.Total, &o.Address, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := fetchItems(ctx, s.pool, orders[i].OrderID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func fetchOrder(ctx context.Context, q querier, orderID string) (models.Order, error) {
	var o models.Order
	row := q.QueryRow(ctx, `
		SELECT order_id, order_number, user_id, status, total_cents, COALESCE(address, ''), created_at
		FROM delivery_orders
		WHERE order_id = $1
	`, orderID)
	err := row.Scan(&o.OrderID, &o.OrderNumber, &o.UserID, &o.Status, &o.Total, &o.Address, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, store.ErrOrderNotFound
		}
		return models.Order{}, err
	}
	o.Items, err = fetchItems(ctx, q, orderID)
	if err != nil {
		return models.Order{}, err
	}
	return o, nil
}

func fetchItems(ctx context.Context, q querier, orderID string) ([]models.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT item_id, name, quantity, price_cents, category, status
		FROM delivery_items
		WHERE order_id = $1
		ORDER BY name ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Quantity, &item.Price, &item.Category, &item.Status); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
