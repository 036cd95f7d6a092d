package customer

import (
	"context"

	"eshop-api/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
}
