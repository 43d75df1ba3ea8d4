package models

import (
	"time"

	"bellatavola/internal/reservation/hours"
)

type Reservation struct {
	ReservationID   string    `json:"reservation_id"`
	UserID          string    `json:"user_id"`
	TableID         string    `json:"table_id"`
	TableNumber     int       `json:"table_number,omitempty"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	PartySize       int       `json:"party_size"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Table struct {
	TableID   string `json:"table_id"`
	Number    int    `json:"number"`
	Capacity  int    `json:"capacity"`
	Type      string `json:"type"`
	PhotoPath string `json:"photo_path,omitempty"`
}

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	TableStandard   = "standard"
	TableVIP        = "vip"
	TableAccessible = "accessible"
)

func ValidTableType(value string) bool {
	switch value {
	case TableStandard, TableVIP, TableAccessible:
		return true
	}
	return false
}

// CancelWindow is how long before the reserved time a guest may still cancel.
const CancelWindow = 2 * time.Hour

// Cancellable reports whether the reservation may still be cancelled by its
// owner at the given instant. Both sides of the API apply this same rule so
// the client hint cannot drift from what the server enforces.
func Cancellable(r Reservation, now time.Time) bool {
	if r.Status != StatusPending && r.Status != StatusApproved {
		return false
	}
	start, ok := StartTime(r)
	if !ok {
		return false
	}
	return now.Before(start.Add(-CancelWindow))
}

// StartTime resolves the reservation's calendar date and HH:MM into a UTC
// instant. Late-window times (00:00-02:30) belong to the service night of
// the stated date, i.e. the small hours of the following morning.
func StartTime(r Reservation) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, false
	}
	minutes, ok := hours.ParseTime(r.Time)
	if !ok {
		return time.Time{}, false
	}
	return day.Add(time.Duration(hours.ServiceMinutes(minutes)) * time.Minute), true
}
