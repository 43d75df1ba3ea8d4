package models

import "time"

// MenuItemImageCount is how many photos every menu item carries: plate,
// detail, and presentation shots.
const MenuItemImageCount = 3

type MenuItem struct {
	ItemID      string    `json:"item_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price_cents"`
	Category    string    `json:"category"`
	ImagePaths  []string  `json:"image_paths"`
	CreatedAt   time.Time `json:"created_at"`
}
