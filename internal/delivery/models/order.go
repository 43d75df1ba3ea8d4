package models

import "time"

// Order statuses. Transitions are validated in the store layer.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Item statuses, advanced by station workers as food and drinks are made.
const (
	ItemPending   = "pending"
	ItemPreparing = "preparing"
	ItemReady     = "ready"
)

const (
	CategoryKitchen = "kitchen"
	CategoryBar     = "bar"
)

type Order struct {
	OrderID     string    `json:"order_id"`
	OrderNumber int       `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Total       int64     `json:"total_cents"`
	Address     string    `json:"address,omitempty"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
}

type Item struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price_cents"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func ValidCategory(category string) bool {
	return category == CategoryKitchen || category == CategoryBar
}

// Partition splits an order's items by preparing station.
func Partition(items []Item) (kitchen, bar []Item) {
	for _, item := range items {
		if item.Category == CategoryBar {
			bar = append(bar, item)
		} else {
			kitchen = append(kitchen, item)
		}
	}
	return kitchen, bar
}

// AllItemsReady reports whether every item has been prepared, which is
// what allows the order itself to move to ready.
func AllItemsReady(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Status != ItemReady {
			return false
		}
	}
	return true
}
