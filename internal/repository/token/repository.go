package token

import (
	"context"
	"time"
)

// Token is an opaque bearer token bound to a customer.
type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, t Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
