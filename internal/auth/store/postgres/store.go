package postgres

import (
	"context"
	"errors"
	"time"

	"bellatavola/internal/auth/models"
	"bellatavola/internal/auth/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Store struct {
	pool            *pgxpool.Pool
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type Options struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	accessTTL := options.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 8 * time.Hour
	}
	refreshTTL := options.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &Store{pool: pool, accessTokenTTL: accessTTL, refreshTokenTTL: refreshTTL}
}

func (s *Store) Login(ctx context.Context, email, password string) (store.AuthResult, error) {
	var user models.User
	var passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, email, profile_code, COALESCE(position_code, ''), COALESCE(dni, ''), COALESCE(cuil, ''), COALESCE(photo_path, ''), password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1) AND active = TRUE
	`, email)
	if err := row.Scan(&user.UserID, &user.Name, &user.Email, &user.ProfileCode, &user.PositionCode, &user.DNI, &user.CUIL, &user.PhotoPath, &passwordHash, &user.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.AuthResult{}, store.ErrInvalidCredentials
		}
		return store.AuthResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return store.AuthResult{}, store.ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.UserID)
	if err != nil {
		return store.AuthResult{}, err
	}
	return store.AuthResult{User: user, Session: session}, nil
}

func (s *Store) Register(ctx context.Context, input store.RegisterInput) (store.AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.AuthResult{}, err
	}

	user := models.User{
		UserID:      uuid.NewString(),
		Name:        input.Name,
		Email:       input.Email,
		ProfileCode: models.ProfileRegistered,
		DNI:         input.DNI,
		CUIL:        input.CUIL,
		Created:     time.Now().UTC(),
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, email, profile_code, dni, cuil, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
	`, user.UserID, user.Name, user.Email, user.ProfileCode, user.DNI, user.CUIL, string(hash), user.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return store.AuthResult{}, store.ErrEmailTaken
		}
		return store.AuthResult{}, err
	}

	session, err := s.createSession(ctx, user.UserID)
	if err != nil {
		return store.AuthResult{}, err
	}
	return store.AuthResult{User: user, Session: session}, nil
}

func (s *Store) RegisterAnonymous(ctx context.Context, name string) (store.AuthResult, error) {
	user := models.User{
		UserID:      uuid.NewString(),
		Name:        name,
		ProfileCode: models.ProfileAnonymous,
		Created:     time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, profile_code, password_hash, active, created_at)
		VALUES ($1, $2, $3, '', TRUE, $4)
	`, user.UserID, user.Name, user.ProfileCode, user.Created)
	if err != nil {
		return store.AuthResult{}, err
	}

	session, err := s.createSession(ctx, user.UserID)
	if err != nil {
		return store.AuthResult{}, err
	}
	return store.AuthResult{User: user, Session: session}, nil
}

func (s *Store) CreateSocialState(ctx context.Context, provider string) (string, error) {
	state := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO social_states (state, provider, created_at)
		VALUES ($1, $2, NOW())
	`, state, provider)
	if err != nil {
		return "", err
	}
	return state, nil
}

func (s *Store) ConsumeSocialState(ctx context.Context, state string) (string, error) {
	var provider string
	row := s.pool.QueryRow(ctx, `
		DELETE FROM social_states
		WHERE state = $1 AND created_at > NOW() - INTERVAL '10 minutes'
		RETURNING provider
	`, state)
	if err := row.Scan(&provider); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrStateNotFound
		}
		return "", err
	}
	return provider, nil
}

func (s *Store) SocialLogin(ctx context.Context, provider, subject string) (store.AuthResult, bool, error) {
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT u.user_id, u.name, u.email, u.profile_code, COALESCE(u.position_code, ''), COALESCE(u.dni, ''), COALESCE(u.cuil, ''), COALESCE(u.photo_path, ''), u.created_at
		FROM user_idp_mappings m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.provider = $1 AND m.subject = $2 AND u.active = TRUE
	`, provider, subject)
	if err := row.Scan(&user.UserID, &user.Name, &user.Email, &user.ProfileCode, &user.PositionCode, &user.DNI, &user.CUIL, &user.PhotoPath, &user.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.AuthResult{}, false, nil
		}
		return store.AuthResult{}, false, err
	}

	session, err := s.createSession(ctx, user.UserID)
	if err != nil {
		return store.AuthResult{}, false, err
	}
	return store.AuthResult{User: user, Session: session}, true, nil
}

func (s *Store) CreateRegistrationTicket(ctx context.Context, provider, subject, email, name string) (string, error) {
	token := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO social_registrations (token, provider, subject, email, name, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, token, provider, subject, email, name)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) CompleteSocialRegistration(ctx context.Context, input store.CompleteRegistrationInput) (store.AuthResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.AuthResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var provider, subject, email, name string
	row := tx.QueryRow(ctx, `
		DELETE FROM social_registrations
		WHERE token = $1 AND created_at > NOW() - INTERVAL '30 minutes'
		RETURNING provider, subject, email, name
	`, input.RegistrationToken)
	if err = row.Scan(&provider, &subject, &email, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrTicketNotFound
		}
		return store.AuthResult{}, err
	}

	if input.Name != "" {
		name = input.Name
	}
	user := models.User{
		UserID:      uuid.NewString(),
		Name:        name,
		Email:       email,
		ProfileCode: models.ProfileRegistered,
		DNI:         input.DNI,
		CUIL:        input.CUIL,
		Created:     time.Now().UTC(),
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (user_id, name, email, profile_code, dni, cuil, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', TRUE, $7)
	`, user.UserID, user.Name, user.Email, user.ProfileCode, user.DNI, user.CUIL, user.Created)
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrEmailTaken
		}
		return store.AuthResult{}, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_idp_mappings (mapping_id, provider, subject, user_id)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), provider, subject, user.UserID)
	if err != nil {
		return store.AuthResult{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return store.AuthResult{}, err
	}

	session, err := s.createSession(ctx, user.UserID)
	if err != nil {
		return store.AuthResult{}, err
	}
	return store.AuthResult{User: user, Session: session}, nil
}

func (s *Store) Refresh(ctx context.Context, refreshToken string) (store.AuthResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.AuthResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var userID string
	row := tx.QueryRow(ctx, `
		DELETE FROM sessions
		WHERE refresh_token = $1 AND refresh_expires_at > NOW()
		RETURNING user_id
	`, refreshToken)
	if err = row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrSessionNotFound
		}
		return store.AuthResult{}, err
	}

	session, err := insertSession(ctx, tx, userID, s.accessTokenTTL, s.refreshTokenTTL)
	if err != nil {
		return store.AuthResult{}, err
	}

	var user models.User
	row = tx.QueryRow(ctx, `
		SELECT user_id, name, COALESCE(email, ''), profile_code, COALESCE(position_code, ''), COALESCE(dni, ''), COALESCE(cuil, ''), COALESCE(photo_path, ''), created_at
		FROM users
		WHERE user_id = $1 AND active = TRUE
	`, userID)
	if err = row.Scan(&user.UserID, &user.Name, &user.Email, &user.ProfileCode, &user.PositionCode, &user.DNI, &user.CUIL, &user.PhotoPath, &user.Created); err != nil {
		return store.AuthResult{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return store.AuthResult{}, err
	}
	return store.AuthResult{User: user, Session: session}, nil
}

func (s *Store) GetSession(ctx context.Context, accessToken string) (models.Session, models.User, error) {
	var session models.Session
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT s.access_token, s.refresh_token, s.user_id, s.expires_at, s.refresh_expires_at,
		       u.user_id, u.name, COALESCE(u.email, ''), u.profile_code, COALESCE(u.position_code, ''), COALESCE(u.dni, ''), COALESCE(u.cuil, ''), COALESCE(u.photo_path, ''), u.created_at
		FROM sessions s
		JOIN users u ON u.user_id = s.user_id
		WHERE s.access_token = $1 AND s.expires_at > NOW()
	`, accessToken)
	err := row.Scan(
		&session.AccessToken, &session.RefreshToken, &session.UserID, &session.ExpiresAt, &session.RefreshExpiresAt,
		&user.UserID, &user.Name, &user.Email, &user.ProfileCode, &user.PositionCode, &user.DNI, &user.CUIL, &user.PhotoPath, &user.Created,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, models.User{}, store.ErrSessionNotFound
		}
		return models.Session{}, models.User{}, err
	}
	return session, user, nil
}

func (s *Store) Logout(ctx context.Context, accessToken string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE access_token = $1`, accessToken)
	return err
}

func (s *Store) createSession(ctx context.Context, userID string) (models.Session, error) {
	return insertSession(ctx, s.pool, userID, s.accessTokenTTL, s.refreshTokenTTL)
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertSession(ctx context.Context, q querier, userID string, accessTTL, refreshTTL time.Duration) (models.Session, error) {
	now := time.Now().UTC()
	session := models.Session{
		AccessToken:      uuid.NewString(),
		RefreshToken:     uuid.NewString(),
		UserID:           userID,
		ExpiresAt:        now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}
	_, err := q.Exec(ctx, `
		INSERT INTO sessions (access_token, refresh_token, user_id, expires_at, refresh_expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, session.AccessToken, session.RefreshToken, session.UserID, session.ExpiresAt, session.RefreshExpiresAt)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}
