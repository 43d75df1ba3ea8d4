package store

import (
	"context"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/delivery/models"
)

type CreateItemInput struct {
	Name     string
	Quantity int
	Price    int64
	Category string
}

type CreateInput struct {
	UserID  string
	Address string
	Items   []CreateItemInput
}

type Store interface {
	CreateOrder(ctx context.Context, input CreateInput) (models.Order, error)
	ListPending(ctx context.Context) ([]models.Order, error)
	ListConfirmed(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID string) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, action string) (models.Order, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID, action string) (models.Order, error)
	Cancel(ctx context.Context, orderID, userID string) (models.Order, error)
	// ConfirmPayment moves a pending order to confirmed and records a
	// payment-confirmed outbox event in the same transaction.
	ConfirmPayment(ctx context.Context, orderID string) (models.Order, error)
	GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}
