package cart

import (
	"context"

	"eshop-api/internal/domain"
)

type CreateCartInput struct {
	OwnerID      *string
	ForAnonymous bool
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	List(ctx context.Context) ([]domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	GetAnonymous(ctx context.Context) (*domain.Cart, error)
	EnsureAnonymous(ctx context.Context) (*domain.Cart, error)
	SetInOrder(ctx context.Context, id string, inOrder bool) error
	Delete(ctx context.Context, id string) error

	AddProduct(ctx context.Context, cartID string, customerID *string, product domain.Product) (*domain.CartProduct, bool, error)
	ChangeQuantity(ctx context.Context, lineID string, qty int) error
	RemoveProduct(ctx context.Context, cartID, lineID string) error
}
