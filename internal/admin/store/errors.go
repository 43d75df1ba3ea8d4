package store

import "errors"

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrTableNumberTaken = errors.New("table number already in use")
	ErrSessionNotFound  = errors.New("session not found")
)
