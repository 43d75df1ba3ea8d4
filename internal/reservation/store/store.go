package store

import (
	"context"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/reservation/models"
)

type CreateInput struct {
	UserID    string
	TableID   string
	Date      string
	Time      string
	PartySize int
	Notes     string
}

type AvailabilityQuery struct {
	Date      string
	Time      string
	PartySize int
	TableType string
}

// AvailabilityResult lists the free candidate tables, or alternate time
// suggestions when nothing is free at the requested slot.
type AvailabilityResult struct {
	Tables      []models.Table `json:"tables"`
	Suggestions []string       `json:"suggested_times"`
}

type Store interface {
	CreateReservation(ctx context.Context, input CreateInput) (models.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Reservation, error)
	ListAll(ctx context.Context, date string) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, reservationID, action, reason string) (models.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID string) (models.Reservation, error)
	Availability(ctx context.Context, query AvailabilityQuery) (AvailabilityResult, error)
	GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}
