package postgres

import (
	"context"
	"errors"

	adminmodels "bellatavola/internal/admin/models"
	"bellatavola/internal/admin/store"
	authmodels "bellatavola/internal/auth/models"
	reservationmodels "bellatavola/internal/reservation/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateStaff(ctx context.Context, input store.CreateStaffInput) (authmodels.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return authmodels.User{}, err
	}

	userID := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, email, password_hash, profile_code, position_code, dni, cuil, photo_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NOW())
	`, userID, input.Name, input.Email, string(hash), authmodels.ProfileEmployee,
		input.PositionCode, input.DNI, input.CUIL, input.PhotoPath)
	if err != nil {
		if isUniqueViolation(err) {
			return authmodels.User{}, store.ErrEmailTaken
		}
		return authmodels.User{}, err
	}
	return s.fetchUser(ctx, userID)
}

func (s *Store) ListUsers(ctx context.Context) ([]authmodels.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, name, COALESCE(email, ''), profile_code, COALESCE(position_code, ''),
		       COALESCE(dni, ''), COALESCE(cuil, ''), COALESCE(photo_path, ''), created_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []authmodels.User
	for rows.Next() {
		var u authmodels.User
		err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.ProfileCode, &u.PositionCode,
			&u.DNI, &u.CUIL, &u.PhotoPath, &u.Created)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreateMenuItem(ctx context.Context, input store.CreateMenuItemInput) (adminmodels.MenuItem, error) {
	itemID := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO menu_items (item_id, name, description, price_cents, category, image_paths, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NOW())
	`, itemID, input.Name, input.Description, input.Price, input.Category, input.ImagePaths)
	if err != nil {
		return adminmodels.MenuItem{}, err
	}
	return s.fetchMenuItem(ctx, itemID)
}

func (s *Store) ListMenu(ctx context.Context) ([]adminmodels.MenuItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, name, COALESCE(description, ''), price_cents, category, image_paths, created_at
		FROM menu_items
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []adminmodels.MenuItem
	for rows.Next() {
		var item adminmodels.MenuItem
		err := rows.Scan(&item.ItemID, &item.Name, &item.Description, &item.Price,
			&item.Category, &item.ImagePaths, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) CreateTable(ctx context.Context, input store.CreateTableInput) (reservationmodels.Table, error) {
	tableID := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tables (table_id, number, capacity, type, photo_path)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`, tableID, input.Number, input.Capacity, input.Type, input.PhotoPath)
	if err != nil {
		if isUniqueViolation(err) {
			return reservationmodels.Table{}, store.ErrTableNumberTaken
		}
		return reservationmodels.Table{}, err
	}

	var table reservationmodels.Table
	row := s.pool.QueryRow(ctx, `
		SELECT table_id, number, capacity, type, COALESCE(photo_path, '')
		FROM tables
		WHERE table_id = $1
	`, tableID)
	if err := row.Scan(&table.TableID, &table.Number, &table.Capacity, &table.Type, &table.PhotoPath); err != nil {
		return reservationmodels.Table{}, err
	}
	return table, nil
}

func (s *Store) ListTables(ctx context.Context) ([]reservationmodels.Table, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_id, number, capacity, type, COALESCE(photo_path, '')
		FROM tables
		ORDER BY number ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []reservationmodels.Table
	for rows.Next() {
		var t reservationmodels.Table
		if err := rows.Scan(&t.TableID, &t.Number, &t.Capacity, &t.Type, &t.PhotoPath); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
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

func (s *Store) fetchUser(ctx context.Context, userID string) (authmodels.User, error) {
	var u authmodels.User
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, COALESCE(email, ''), profile_code, COALESCE(position_code, ''),
		       COALESCE(dni, ''), COALESCE(cuil, ''), COALESCE(photo_path, ''), created_at
		FROM users
		WHERE user_id = $1
	`, userID)
	err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.ProfileCode, &u.PositionCode,
		&u.DNI, &u.CUIL, &u.PhotoPath, &u.Created)
	if err != nil {
		return authmodels.User{}, err
	}
	return u, nil
}

func (s *Store) fetchMenuItem(ctx context.Context, itemID string) (adminmodels.MenuItem, error) {
	var item adminmodels.MenuItem
	row := s.pool.QueryRow(ctx, `
		SELECT item_id, name, COALESCE(description, ''), price_cents, category, image_paths, created_at
		FROM menu_items
		WHERE item_id = $1
	`, itemID)
	err := row.Scan(&item.ItemID, &item.Name, &item.Description, &item.Price,
		&item.Category, &item.ImagePaths, &item.CreatedAt)
	if err != nil {
		return adminmodels.MenuItem{}, err
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
