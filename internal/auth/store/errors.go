package store

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrStateNotFound      = errors.New("social state not found or expired")
	ErrTicketNotFound     = errors.New("registration ticket not found or expired")
)
