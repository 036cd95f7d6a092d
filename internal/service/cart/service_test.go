package cart

import (
	"context"
	"errors"
	"testing"

	"eshop-api/internal/domain"
	cartrepo "eshop-api/internal/repository/cart"
	"github.com/shopspring/decimal"
)

type stubRepo struct {
	createCart      *domain.Cart
	createErr       error
	lastCreateInput cartrepo.CreateCartInput
	createCalls     int

	listCarts []domain.Cart
	listErr   error

	getByIDCart *domain.Cart
	getByIDErr  error

	activeCarts  []*domain.Cart
	activeErrs   []error
	activeCalls  int
	anonCart     *domain.Cart
	anonErr      error
	ensuredCart  *domain.Cart
	ensureErr    error
	ensureCalls  int
	setInOrder   *bool
	setInOrderID string
	setErr       error
	deleteID     string
	deleteErr    error

	addLine       *domain.CartProduct
	addCreated    bool
	addErr        error
	lastAddCartID string
	lastAddOwner  *string
	lastAddProd   domain.Product

	changeErr      error
	lastChangeLine string
	lastChangeQty  int
	changeCalls    int

	removeErr      error
	lastRemoveCart string
	lastRemoveLine string
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	s.createCalls++
	s.lastCreateInput = in
	return s.createCart, s.createErr
}

func (s *stubRepo) List(_ context.Context) ([]domain.Cart, error) {
	return s.listCarts, s.listErr
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Cart, error) {
	return s.getByIDCart, s.getByIDErr
}

func (s *stubRepo) GetActiveByOwner(_ context.Context, _ string) (*domain.Cart, error) {
	idx := s.activeCalls
	s.activeCalls++
	var cart *domain.Cart
	var err error
	if idx < len(s.activeCarts) {
		cart = s.activeCarts[idx]
	}
	if idx < len(s.activeErrs) {
		err = s.activeErrs[idx]
	}
	return cart, err
}

func (s *stubRepo) GetAnonymous(_ context.Context) (*domain.Cart, error) {
	return s.anonCart, s.anonErr
}

func (s *stubRepo) EnsureAnonymous(_ context.Context) (*domain.Cart, error) {
	s.ensureCalls++
	return s.ensuredCart, s.ensureErr
}

func (s *stubRepo) SetInOrder(_ context.Context, id string, inOrder bool) error {
	s.setInOrderID = id
	s.setInOrder = &inOrder
	return s.setErr
}

func (s *stubRepo) Delete(_ context.Context, id string) error {
	s.deleteID = id
	return s.deleteErr
}

func (s *stubRepo) AddProduct(_ context.Context, cartID string, customerID *string, product domain.Product) (*domain.CartProduct, bool, error) {
	s.lastAddCartID = cartID
	s.lastAddOwner = customerID
	s.lastAddProd = product
	return s.addLine, s.addCreated, s.addErr
}

func (s *stubRepo) ChangeQuantity(_ context.Context, lineID string, qty int) error {
	s.changeCalls++
	s.lastChangeLine = lineID
	s.lastChangeQty = qty
	return s.changeErr
}

func (s *stubRepo) RemoveProduct(_ context.Context, cartID, lineID string) error {
	s.lastRemoveCart = cartID
	s.lastRemoveLine = lineID
	return s.removeErr
}

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func strPtr(v string) *string {
	return &v
}

func TestResolveAnonymous(t *testing.T) {
	anon := &domain.Cart{ID: "anon", ForAnonymousUser: true}
	svc := &Service{repo: &stubRepo{anonCart: anon}}
	got, err := svc.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != anon {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestResolveOwner(t *testing.T) {
	owned := &domain.Cart{ID: "c1", OwnerID: strPtr("cust")}
	svc := &Service{repo: &stubRepo{activeCarts: []*domain.Cart{owned}}}
	got, err := svc.Resolve(context.Background(), strPtr("cust"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != owned {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestResolveNotFoundPassesThrough(t *testing.T) {
	svc := &Service{repo: &stubRepo{activeErrs: []error{domain.ErrNotFound}}}
	_, err := svc.Resolve(context.Background(), strPtr("cust"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveOrCreateCreatesOwnedCart(t *testing.T) {
	created := &domain.Cart{ID: "c1", OwnerID: strPtr("cust")}
	repo := &stubRepo{
		activeErrs: []error{domain.ErrNotFound},
		createCart: created,
	}
	svc := &Service{repo: repo}
	got, err := svc.ResolveOrCreate(context.Background(), strPtr("cust"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != created {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.lastCreateInput.OwnerID == nil || *repo.lastCreateInput.OwnerID != "cust" {
		t.Fatalf("expected create with owner, got %+v", repo.lastCreateInput)
	}
	if repo.lastCreateInput.ForAnonymous {
		t.Fatalf("owned cart must not be flagged anonymous")
	}
}

func TestResolveOrCreateEnsuresAnonymousSingleton(t *testing.T) {
	anon := &domain.Cart{ID: "anon", ForAnonymousUser: true}
	repo := &stubRepo{anonErr: domain.ErrNotFound, ensuredCart: anon}
	svc := &Service{repo: repo}
	got, err := svc.ResolveOrCreate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != anon {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.ensureCalls != 1 || repo.createCalls != 0 {
		t.Fatalf("expected EnsureAnonymous once, Create never; got ensure=%d create=%d", repo.ensureCalls, repo.createCalls)
	}
}

func TestResolveOrCreateLosesCreateRace(t *testing.T) {
	winner := &domain.Cart{ID: "c1", OwnerID: strPtr("cust")}
	repo := &stubRepo{
		activeCarts: []*domain.Cart{nil, winner},
		activeErrs:  []error{domain.ErrNotFound, nil},
		createErr:   domain.ErrAlreadyExists,
	}
	svc := &Service{repo: repo}
	got, err := svc.ResolveOrCreate(context.Background(), strPtr("cust"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != winner {
		t.Fatalf("expected the concurrently created cart, got %+v", got)
	}
}

func TestAddToCartProductNotFound(t *testing.T) {
	svc := &Service{repo: &stubRepo{}, productRepo: &stubProductRepo{err: domain.ErrNotFound}}
	_, _, err := svc.AddToCart(context.Background(), nil, "p1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddToCartCreated(t *testing.T) {
	product := &domain.Product{ID: "p1", Title: "Prod", Price: decimal.RequireFromString("100.00")}
	line := &domain.CartProduct{ID: "line", CartID: "c1", ProductID: "p1", Qty: 1, FinalPrice: product.Price}
	repo := &stubRepo{
		activeCarts: []*domain.Cart{{ID: "c1", OwnerID: strPtr("cust")}},
		addLine:     line,
		addCreated:  true,
	}
	svc := &Service{repo: repo, productRepo: &stubProductRepo{product: product}}
	got, created, err := svc.AddToCart(context.Background(), strPtr("cust"), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || got != line {
		t.Fatalf("expected created line, got created=%v line=%+v", created, got)
	}
	if repo.lastAddCartID != "c1" || repo.lastAddProd.ID != "p1" {
		t.Fatalf("add not called as expected: cart=%s product=%s", repo.lastAddCartID, repo.lastAddProd.ID)
	}
	if repo.lastAddOwner == nil || *repo.lastAddOwner != "cust" {
		t.Fatalf("expected owner passed to repo, got %v", repo.lastAddOwner)
	}
}

func TestAddToCartAlreadyPresent(t *testing.T) {
	product := &domain.Product{ID: "p1", Price: decimal.RequireFromString("100.00")}
	line := &domain.CartProduct{ID: "line", CartID: "c1", ProductID: "p1", Qty: 2}
	repo := &stubRepo{
		activeCarts: []*domain.Cart{{ID: "c1", OwnerID: strPtr("cust")}},
		addLine:     line,
		addCreated:  false,
	}
	svc := &Service{repo: repo, productRepo: &stubProductRepo{product: product}}
	got, created, err := svc.AddToCart(context.Background(), strPtr("cust"), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("repeat add must not report created")
	}
	if got.Qty != 2 {
		t.Fatalf("existing line must be returned untouched, got qty=%d", got.Qty)
	}
}

func TestChangeQuantityRejectsNegative(t *testing.T) {
	repo := &stubRepo{}
	svc := &Service{repo: repo}
	err := svc.ChangeQuantity(context.Background(), "line", -1)
	if !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
	if repo.changeCalls != 0 {
		t.Fatalf("repo must not be called for negative quantity")
	}
}

func TestChangeQuantityAllowsZero(t *testing.T) {
	repo := &stubRepo{}
	svc := &Service{repo: repo}
	if err := svc.ChangeQuantity(context.Background(), "line", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastChangeLine != "line" || repo.lastChangeQty != 0 {
		t.Fatalf("expected qty 0 passed through, got line=%s qty=%d", repo.lastChangeLine, repo.lastChangeQty)
	}
}

func TestChangeQuantityRepoError(t *testing.T) {
	repo := &stubRepo{changeErr: domain.ErrNotFound}
	svc := &Service{repo: repo}
	err := svc.ChangeQuantity(context.Background(), "missing", 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveFromCartScopesToResolvedCart(t *testing.T) {
	repo := &stubRepo{anonCart: &domain.Cart{ID: "anon", ForAnonymousUser: true}}
	svc := &Service{repo: repo}
	if err := svc.RemoveFromCart(context.Background(), nil, "line"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastRemoveCart != "anon" || repo.lastRemoveLine != "line" {
		t.Fatalf("remove not scoped to resolved cart: cart=%s line=%s", repo.lastRemoveCart, repo.lastRemoveLine)
	}
}

func TestRemoveFromCartNotFound(t *testing.T) {
	repo := &stubRepo{
		anonCart:  &domain.Cart{ID: "anon"},
		removeErr: domain.ErrNotFound,
	}
	svc := &Service{repo: repo}
	err := svc.RemoveFromCart(context.Background(), nil, "gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRequiresInOrder(t *testing.T) {
	svc := &Service{repo: &stubRepo{}}
	_, err := svc.Update(context.Background(), "c1", UpdateInput{})
	if err == nil || err.Error() != "in_order required" {
		t.Fatalf("expected in_order error, got %v", err)
	}
}

func TestUpdateSetsInOrder(t *testing.T) {
	finalized := &domain.Cart{ID: "c1", InOrder: true}
	repo := &stubRepo{getByIDCart: finalized}
	svc := &Service{repo: repo}
	inOrder := true
	got, err := svc.Update(context.Background(), "c1", UpdateInput{InOrder: &inOrder})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != finalized {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.setInOrderID != "c1" || repo.setInOrder == nil || !*repo.setInOrder {
		t.Fatalf("SetInOrder not called as expected")
	}
}
