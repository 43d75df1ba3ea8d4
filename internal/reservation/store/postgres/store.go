package postgres

import (
	"context"
	"errors"
	"time"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/reservation/models"
	"bellatavola/internal/reservation/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxSuggestions = 3

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const reservationColumns = `
	r.reservation_id, r.user_id, r.table_id, t.number, r.res_date, r.res_time,
	r.party_size, r.status, COALESCE(r.rejection_reason, ''), COALESCE(r.notes, ''), r.created_at
`

func scanReservation(row pgx.Row) (models.Reservation, error) {
	var r models.Reservation
	var day time.Time
	err := row.Scan(
		&r.ReservationID, &r.UserID, &r.TableID, &r.TableNumber, &day, &r.Time,
		&r.PartySize, &r.Status, &r.RejectionReason, &r.Notes, &r.CreatedAt,
	)
	if err != nil {
		return models.Reservation{}, err
	}
	r.Date = day.Format("2006-01-02")
	return r, nil
}

func (s *Store) CreateReservation(ctx context.Context, input store.CreateInput) (models.Reservation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity int
	row := tx.QueryRow(ctx, `SELECT capacity FROM tables WHERE table_id = $1`, input.TableID)
	if err = row.Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrTableNotFound
		}
		return models.Reservation{}, err
	}

	taken, err := tableTaken(ctx, tx, input.TableID, input.Date, input.Time)
	if err != nil {
		return models.Reservation{}, err
	}
	if taken {
		err = store.ErrTableTaken
		return models.Reservation{}, err
	}

	reservationID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (reservation_id, user_id, table_id, res_date, res_time, party_size, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, reservationID, input.UserID, input.TableID, input.Date, input.Time, input.PartySize, models.StatusPending, input.Notes)
	if err != nil {
		return models.Reservation{}, err
	}

	reservation, err := fetchReservation(ctx, tx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if err = insertOutboxEvent(ctx, tx, "reservation_created", reservation); err != nil {
		return models.Reservation{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN tables t ON t.table_id = r.table_id
		WHERE r.user_id = $1
		ORDER BY r.res_date DESC, r.res_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *Store) ListAll(ctx context.Context, date string) ([]models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN tables t ON t.table_id = r.table_id
	`
	args := []interface{}{}
	if date != "" {
		query += ` WHERE r.res_date = $1`
		args = append(args, date)
	}
	query += ` ORDER BY r.res_date DESC, r.res_time DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *Store) UpdateStatus(ctx context.Context, reservationID, action, reason string) (models.Reservation, error) {
	newStatus, ok := store.StatusForAction(action)
	if !ok {
		return models.Reservation{}, store.ErrInvalidTransition
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchReservation(ctx, tx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if !store.ValidTransition(action, current.Status) {
		err = store.ErrInvalidTransition
		return models.Reservation{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE reservations
		SET status = $2, rejection_reason = NULLIF($3, '')
		WHERE reservation_id = $1
	`, reservationID, newStatus, reason)
	if err != nil {
		return models.Reservation{}, err
	}

	updated, err := fetchReservation(ctx, tx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if err = insertOutboxEvent(ctx, tx, "reservation_"+newStatus, updated); err != nil {
		return models.Reservation{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return updated, nil
}

func (s *Store) Cancel(ctx context.Context, reservationID, userID string) (models.Reservation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchReservation(ctx, tx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if current.UserID != userID {
		err = store.ErrReservationNotFound
		return models.Reservation{}, err
	}
	if !store.ValidTransition("cancel", current.Status) {
		err = store.ErrInvalidTransition
		return models.Reservation{}, err
	}
	if !models.Cancellable(current, time.Now().UTC()) {
		err = store.ErrCancelWindowClosed
		return models.Reservation{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE reservations SET status = $2 WHERE reservation_id = $1
	`, reservationID, models.StatusCancelled)
	if err != nil {
		return models.Reservation{}, err
	}

	updated, err := fetchReservation(ctx, tx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if err = insertOutboxEvent(ctx, tx, "reservation_cancelled", updated); err != nil {
		return models.Reservation{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return updated, nil
}

func (s *Store) Availability(ctx context.Context, query store.AvailabilityQuery) (store.AvailabilityResult, error) {
	tables, err := s.candidateTables(ctx, query.PartySize, query.TableType)
	if err != nil {
		return store.AvailabilityResult{}, err
	}

	booked, err := s.bookedTimes(ctx, query.Date)
	if err != nil {
		return store.AvailabilityResult{}, err
	}

	free := freeTablesAt(tables, booked, query.Time)
	if len(free) > 0 {
		return store.AvailabilityResult{Tables: free}, nil
	}

	var suggestions []string
	for _, slot := range store.NearestSlots(query.Time) {
		if len(freeTablesAt(tables, booked, slot)) > 0 {
			suggestions = append(suggestions, slot)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}
	return store.AvailabilityResult{Suggestions: suggestions}, nil
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

func (s *Store) candidateTables(ctx context.Context, partySize int, tableType string) ([]models.Table, error) {
	query := `
		SELECT table_id, number, capacity, type, COALESCE(photo_path, '')
		FROM tables
		WHERE capacity >= $1
	`
	args := []interface{}{partySize}
	if tableType != "" {
		query += ` AND type = $2`
		args = append(args, tableType)
	}
	query += ` ORDER BY capacity ASC, number ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.TableID, &t.Number, &t.Capacity, &t.Type, &t.PhotoPath); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// bookedTimes maps table_id to the times it is already reserved on a date.
func (s *Store) bookedTimes(ctx context.Context, date string) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_id, res_time
		FROM reservations
		WHERE res_date = $1 AND status IN ($2, $3)
	`, date, models.StatusPending, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var tableID, resTime string
		if err := rows.Scan(&tableID, &resTime); err != nil {
			return nil, err
		}
		booked[tableID] = append(booked[tableID], resTime)
	}
	return booked, rows.Err()
}

func freeTablesAt(tables []models.Table, booked map[string][]string, at string) []models.Table {
	var free []models.Table
	for _, t := range tables {
		conflict := false
		for _, existing := range booked[t.TableID] {
			if store.Conflicts(at, existing) {
				conflict = true
				break
			}
		}
		if !conflict {
			free = append(free, t)
		}
	}
	return free
}

func tableTaken(ctx context.Context, tx pgx.Tx, tableID, date, at string) (bool, error) {
	rows, err := tx.Query(ctx, `
		SELECT res_time
		FROM reservations
		WHERE table_id = $1 AND res_date = $2 AND status IN ($3, $4)
	`, tableID, date, models.StatusPending, models.StatusApproved)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return false, err
		}
		if store.Conflicts(at, existing) {
			return true, nil
		}
	}
	return false, rows.Err()
}

func fetchReservation(ctx context.Context, tx pgx.Tx, reservationID string) (models.Reservation, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN tables t ON t.table_id = r.table_id
		WHERE r.reservation_id = $1
	`, reservationID)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, store.ErrReservationNotFound
		}
		return models.Reservation{}, err
	}
	return reservation, nil
}

func collectReservations(rows pgx.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, eventType string, reservation models.Reservation) error {
	payload := map[string]interface{}{
		"reservation_id": reservation.ReservationID,
		"table_number":   reservation.TableNumber,
		"date":           reservation.Date,
		"time":           reservation.Time,
		"status":         reservation.Status,
	}
	if reservation.RejectionReason != "" {
		payload["rejection_reason"] = reservation.RejectionReason
	}
	return insertOutbox(ctx, tx, reservation.UserID, eventType, payload)
}
