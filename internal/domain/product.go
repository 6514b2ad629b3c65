package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Price here is the live, authoritative price;
// orders snapshot it at creation time.
type Product struct {
	ID           string
	Name         string
	Image        string
	ImageID      string
	Brand        string
	Quantity     int
	CategoryID   string
	Description  string
	Rating       float64
	NumReviews   int
	Price        decimal.Decimal
	CountInStock int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category groups products. Names are unique.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
