package models

import (
	"time"
)

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Category    string
	Brand       string
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
