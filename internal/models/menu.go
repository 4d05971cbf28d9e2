package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups menu items for display
type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// MenuItem is a catalog entry. The lifecycle engine only ever reads it;
// orders snapshot its price at creation time.
type MenuItem struct {
	ID          int             `json:"id" db:"id"`
	CategoryID  int             `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    *string         `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time       `json:"created_at,omitempty" db:"created_at"`
}
