package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Slug        string          `json:"slug"`
	Category    *Category       `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
