package store

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrItemsNotReady     = errors.New("not all items are ready")
	ErrSessionNotFound   = errors.New("session not found")
)
