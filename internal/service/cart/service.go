package cart

import (
	"context"
	"errors"
	"fmt"

	"eshop-api/internal/domain"
	cartrepo "eshop-api/internal/repository/cart"
)

// ErrNegativeQuantity rejects change-quantity calls below zero. Zero itself is
// accepted: the line stays in the cart with a zero total.
var ErrNegativeQuantity = errors.New("quantity must not be negative")

type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
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

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

// Resolve maps a request identity to its cart: the active cart of the owner,
// or the shared anonymous cart when ownerID is nil. It never creates and is
// safe to call repeatedly; absence is domain.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, ownerID *string) (*domain.Cart, error) {
	if ownerID == nil {
		return s.repo.GetAnonymous(ctx)
	}
	return s.repo.GetActiveByOwner(ctx, *ownerID)
}

// ResolveOrCreate resolves like Resolve but lazily creates the cart on first
// use: a fresh owned cart for a customer, the singleton for anonymous traffic.
func (s *Service) ResolveOrCreate(ctx context.Context, ownerID *string) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, ownerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if ownerID == nil {
		return s.repo.EnsureAnonymous(ctx)
	}
	cart, err = s.repo.Create(ctx, cartrepo.CreateCartInput{OwnerID: ownerID})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent request created the owner's cart first.
		return s.repo.GetActiveByOwner(ctx, *ownerID)
	}
	return cart, err
}

// AddToCart performs the idempotent add: an existing line for the same
// product in the caller's cart is reported back with created=false and left
// untouched, quantity is not accumulated.
func (s *Service) AddToCart(ctx context.Context, ownerID *string, productID string) (*domain.CartProduct, bool, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	cart, err := s.ResolveOrCreate(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}
	return s.repo.AddProduct(ctx, cart.ID, ownerID, *product)
}

// ChangeQuantity sets the quantity of an existing line. Only existence is
// checked; the line is not verified to belong to the caller's cart.
func (s *Service) ChangeQuantity(ctx context.Context, lineID string, qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	return s.repo.ChangeQuantity(ctx, lineID, qty)
}

// RemoveFromCart detaches and deletes a line from the caller's cart.
func (s *Service) RemoveFromCart(ctx context.Context, ownerID *string, lineID string) error {
	cart, err := s.ResolveOrCreate(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.repo.RemoveProduct(ctx, cart.ID, lineID)
}

type UpdateInput struct {
	InOrder *bool `json:"in_order"`
}

func (s *Service) List(ctx context.Context) ([]domain.Cart, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, ownerID *string) (*domain.Cart, error) {
	return s.repo.Create(ctx, cartrepo.CreateCartInput{OwnerID: ownerID})
}

// Update applies the generic cart update; only the finalization flag is
// writable, everything else on a cart is derived.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Cart, error) {
	if in.InOrder == nil {
		return nil, fmt.Errorf("in_order required")
	}
	if err := s.repo.SetInOrder(ctx, id, *in.InOrder); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
