package models

import "time"

type User struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	ProfileCode  string    `json:"profile_code"`
	PositionCode string    `json:"position_code,omitempty"`
	DNI          string    `json:"dni,omitempty"`
	CUIL         string    `json:"cuil,omitempty"`
	PhotoPath    string    `json:"photo_path,omitempty"`
	Created      time.Time `json:"created_at"`
}

type Session struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	UserID           string    `json:"user_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

const (
	ProfileAnonymous  = "anonymous"
	ProfileRegistered = "registered"
	ProfileEmployee   = "employee"
	ProfileSupervisor = "supervisor"
)

const (
	PositionKitchen = "kitchen"
	PositionBar     = "bar"
	PositionHost    = "host"
	PositionWaiter  = "waiter"
)

func ValidProfile(code string) bool {
	switch code {
	case ProfileAnonymous, ProfileRegistered, ProfileEmployee, ProfileSupervisor:
		return true
	}
	return false
}

func ValidPosition(code string) bool {
	switch code {
	case PositionKitchen, PositionBar, PositionHost, PositionWaiter:
		return true
	}
	return false
}

// IsStaff reports whether the profile grants access to staff endpoints.
func IsStaff(profileCode string) bool {
	return profileCode == ProfileEmployee || profileCode == ProfileSupervisor
}
