package model

import (
	"time"
)

// Product represents a marketplace listing. Owner is the email of the account that created it.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}
