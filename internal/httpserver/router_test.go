package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eshop-api/internal/domain"
	cartsvc "eshop-api/internal/service/cart"
	customersvc "eshop-api/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type stubCartService struct {
	cart       *domain.Cart
	resolveErr error

	line    *domain.CartProduct
	created bool
	addErr  error

	changeErr error
	removeErr error

	carts      []domain.Cart
	listErr    error
	getCart    *domain.Cart
	getErr     error
	createCart *domain.Cart
	createErr  error
	updateCart *domain.Cart
	updateErr  error
	deleteErr  error

	resolveCalls   int
	lastOwner      *string
	ownerCaptured  bool
	lastProductID  string
	lastChangeLine string
	lastChangeQty  int
	lastRemoveLine string
	lastDeleteID   string
}

func (s *stubCartService) Resolve(_ context.Context, ownerID *string) (*domain.Cart, error) {
	s.resolveCalls++
	s.lastOwner = ownerID
	s.ownerCaptured = true
	return s.cart, s.resolveErr
}

func (s *stubCartService) ResolveOrCreate(_ context.Context, ownerID *string) (*domain.Cart, error) {
	s.resolveCalls++
	s.lastOwner = ownerID
	s.ownerCaptured = true
	return s.cart, s.resolveErr
}

func (s *stubCartService) AddToCart(_ context.Context, ownerID *string, productID string) (*domain.CartProduct, bool, error) {
	s.lastOwner = ownerID
	s.ownerCaptured = true
	s.lastProductID = productID
	return s.line, s.created, s.addErr
}

func (s *stubCartService) ChangeQuantity(_ context.Context, lineID string, qty int) error {
	s.lastChangeLine = lineID
	s.lastChangeQty = qty
	return s.changeErr
}

func (s *stubCartService) RemoveFromCart(_ context.Context, ownerID *string, lineID string) error {
	s.lastOwner = ownerID
	s.ownerCaptured = true
	s.lastRemoveLine = lineID
	return s.removeErr
}

func (s *stubCartService) List(_ context.Context) ([]domain.Cart, error) {
	return s.carts, s.listErr
}

func (s *stubCartService) Get(_ context.Context, _ string) (*domain.Cart, error) {
	return s.getCart, s.getErr
}

func (s *stubCartService) Create(_ context.Context, ownerID *string) (*domain.Cart, error) {
	s.lastOwner = ownerID
	s.ownerCaptured = true
	return s.createCart, s.createErr
}

func (s *stubCartService) Update(_ context.Context, _ string, _ cartsvc.UpdateInput) (*domain.Cart, error) {
	return s.updateCart, s.updateErr
}

func (s *stubCartService) Delete(_ context.Context, id string) error {
	s.lastDeleteID = id
	return s.deleteErr
}

type stubCategoryService struct {
	categories []domain.Category
	category   *domain.Category
	listErr    error
	getErr     error
	slugErr    error
	createErr  error
}

func (s *stubCategoryService) List(_ context.Context) ([]domain.Category, error) {
	return s.categories, s.listErr
}

func (s *stubCategoryService) Get(_ context.Context, _ string) (*domain.Category, error) {
	return s.category, s.getErr
}

func (s *stubCategoryService) GetBySlug(_ context.Context, _ string) (*domain.Category, error) {
	return s.category, s.slugErr
}

func (s *stubCategoryService) Create(_ context.Context, _ domain.Category) (*domain.Category, error) {
	return s.category, s.createErr
}

type stubProductService struct {
	products []domain.Product
	product  *domain.Product
	listErr  error
	getErr   error
	upErr    error
}

func (s *stubProductService) List(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, s.listErr
}

func (s *stubProductService) Get(_ context.Context, _ string) (*domain.Product, error) {
	return s.product, s.getErr
}

func (s *stubProductService) Upsert(_ context.Context, _ domain.Product) (*domain.Product, error) {
	return s.product, s.upErr
}

type stubCustomerService struct {
	customer  *domain.Customer
	signupErr error
	loginErr  error
	lookupErr error
	getErr    error
}

func (s *stubCustomerService) Signup(_ context.Context, _ customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signupErr
}

func (s *stubCustomerService) Login(_ context.Context, _ string, _ string) (*domain.Customer, string, string, error) {
	return s.customer, "access-token", "refresh-token", s.loginErr
}

func (s *stubCustomerService) LookupByToken(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.lookupErr
}

func (s *stubCustomerService) Get(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.getErr
}

func (s *stubCustomerService) AccessTTLSeconds() int {
	return 3600
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.CartSvc == nil {
		deps.CartSvc = &stubCartService{}
	}
	if deps.CategorySvc == nil {
		deps.CategorySvc = &stubCategoryService{}
	}
	if deps.ProductSvc == nil {
		deps.ProductSvc = &stubProductService{}
	}
	if deps.CustomerSvc == nil {
		deps.CustomerSvc = &stubCustomerService{}
	}
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouter_MissingDeps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, err := buildRouter(logDiscard(), nil, Deps{})
	if err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, Deps{})
	rec := doRequest(router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIdentityMiddleware_NoTokenIsAnonymous(t *testing.T) {
	cartSvc := &stubCartService{cart: &domain.Cart{ID: "anon", ForAnonymousUser: true}}
	router := newTestRouter(t, Deps{CartSvc: cartSvc})

	rec := doRequest(router, http.MethodGet, "/cart/current_customer_cart", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !cartSvc.ownerCaptured || cartSvc.lastOwner != nil {
		t.Fatalf("expected anonymous resolution, got owner=%v", cartSvc.lastOwner)
	}
}

func TestIdentityMiddleware_InvalidTokenFallsBackToAnonymous(t *testing.T) {
	cartSvc := &stubCartService{cart: &domain.Cart{ID: "anon", ForAnonymousUser: true}}
	customerSvc := &stubCustomerService{lookupErr: customersvc.ErrInvalidToken}
	router := newTestRouter(t, Deps{CartSvc: cartSvc, CustomerSvc: customerSvc})

	rec := doRequest(router, http.MethodGet, "/cart/current_customer_cart", "", map[string]string{
		"Authorization": "Bearer bogus",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("invalid token must not reject, got %d", rec.Code)
	}
	if cartSvc.lastOwner != nil {
		t.Fatalf("expected anonymous fallback, got owner=%v", *cartSvc.lastOwner)
	}
}

func TestIdentityMiddleware_ValidToken(t *testing.T) {
	cartSvc := &stubCartService{cart: &domain.Cart{ID: "c1"}}
	customerSvc := &stubCustomerService{customer: &domain.Customer{ID: "cust-1", Username: "jane"}}
	router := newTestRouter(t, Deps{CartSvc: cartSvc, CustomerSvc: customerSvc})

	rec := doRequest(router, http.MethodGet, "/cart/current_customer_cart", "", map[string]string{
		"Authorization": "Bearer good",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cartSvc.lastOwner == nil || *cartSvc.lastOwner != "cust-1" {
		t.Fatalf("expected cart resolved for cust-1, got %v", cartSvc.lastOwner)
	}
}
