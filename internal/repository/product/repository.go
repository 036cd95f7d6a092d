package product

import (
	"context"

	"eshop-api/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
