package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID               string          `json:"id"`
	OwnerID          *string         `json:"ownerId,omitempty"`
	Products         []CartProduct   `json:"products,omitempty"`
	TotalProducts    int             `json:"totalProducts"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	InOrder          bool            `json:"inOrder"`
	ForAnonymousUser bool            `json:"forAnonymousUser"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// CartProduct binds one product with a quantity inside a cart. FinalPrice is
// always qty * product price as of the last create or quantity change; it is
// never written independently.
type CartProduct struct {
	ID         string          `json:"id"`
	CustomerID *string         `json:"customerId,omitempty"`
	CartID     string          `json:"cartId"`
	ProductID  string          `json:"productId"`
	Qty        int             `json:"qty"`
	FinalPrice decimal.Decimal `json:"finalPrice"`
	Product    *Product        `json:"product,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
