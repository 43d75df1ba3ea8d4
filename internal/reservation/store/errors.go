package store

import "errors"

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableTaken          = errors.New("table already reserved for that time")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrCancelWindowClosed  = errors.New("cancellation window closed")
	ErrSessionNotFound     = errors.New("session not found")
)
