package store

import (
	"context"

	"bellatavola/internal/auth/models"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	DNI      string
	CUIL     string
}

type CompleteRegistrationInput struct {
	RegistrationToken string
	Name              string
	DNI               string
	CUIL              string
}

type AuthResult struct {
	User    models.User
	Session models.Session
}

type Store interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (AuthResult, error)
	RegisterAnonymous(ctx context.Context, name string) (AuthResult, error)

	CreateSocialState(ctx context.Context, provider string) (string, error)
	ConsumeSocialState(ctx context.Context, state string) (string, error)
	SocialLogin(ctx context.Context, provider, subject string) (AuthResult, bool, error)
	CreateRegistrationTicket(ctx context.Context, provider, subject, email, name string) (string, error)
	CompleteSocialRegistration(ctx context.Context, input CompleteRegistrationInput) (AuthResult, error)

	Refresh(ctx context.Context, refreshToken string) (AuthResult, error)
	GetSession(ctx context.Context, accessToken string) (models.Session, models.User, error)
	Logout(ctx context.Context, accessToken string) error
}
