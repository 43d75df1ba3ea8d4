package store

import (
	"context"

	adminmodels "bellatavola/internal/admin/models"
	authmodels "bellatavola/internal/auth/models"
	reservationmodels "bellatavola/internal/reservation/models"
)

type CreateStaffInput struct {
	Name         string
	Email        string
	Password     string
	DNI          string
	CUIL         string
	PositionCode string
	PhotoPath    string
}

type CreateMenuItemInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	ImagePaths  []string
}

type CreateTableInput struct {
	Number    int
	Capacity  int
	Type      string
	PhotoPath string
}

type Store interface {
	CreateStaff(ctx context.Context, input CreateStaffInput) (authmodels.User, error)
	ListUsers(ctx context.Context) ([]authmodels.User, error)
	CreateMenuItem(ctx context.Context, input CreateMenuItemInput) (adminmodels.MenuItem, error)
	ListMenu(ctx context.Context) ([]adminmodels.MenuItem, error)
	CreateTable(ctx context.Context, input CreateTableInput) (reservationmodels.Table, error)
	ListTables(ctx context.Context) ([]reservationmodels.Table, error)
	GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}
