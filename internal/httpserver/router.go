package httpserver

import (
	"context"
	"errors"
	"log"

	"eshop-api/internal/domain"
	cartsvc "eshop-api/internal/service/cart"
	customersvc "eshop-api/internal/service/customer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	Resolve(ctx context.Context, ownerID *string) (*domain.Cart, error)
	ResolveOrCreate(ctx context.Context, ownerID *string) (*domain.Cart, error)
	AddToCart(ctx context.Context, ownerID *string, productID string) (*domain.CartProduct, bool, error)
	ChangeQuantity(ctx context.Context, lineID string, qty int) error
	RemoveFromCart(ctx context.Context, ownerID *string, lineID string) error
	List(ctx context.Context) ([]domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Create(ctx context.Context, ownerID *string) (*domain.Cart, error)
	Update(ctx context.Context, id string, in cartsvc.UpdateInput) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductService interface {
	List(ctx context.Context, categoryID string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, username, password string) (*domain.Customer, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

// Deps bundles the services the router depends on.
type Deps struct {
	CartSvc     CartService
	CategorySvc CategoryService
	ProductSvc  ProductService
	CustomerSvc CustomerService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.CategorySvc == nil || deps.ProductSvc == nil || deps.CustomerSvc == nil {
		return nil, errors.New("httpserver: missing service dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/signup", signupHandler(deps.CustomerSvc))
	router.POST("/auth/token", tokenHandler(deps.CustomerSvc))

	router.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	router.POST("/categories", createCategoryHandler(deps.CategorySvc))
	router.GET("/categories/:category_id", getCategoryHandler(deps.CategorySvc))

	router.GET("/products", listProductsHandler(deps.ProductSvc))
	router.POST("/products", createProductHandler(deps.ProductSvc, deps.CategorySvc))
	router.GET("/products/:product_id", getProductHandler(deps.ProductSvc))

	// Cart routes all run behind the identity middleware: a valid bearer token
	// ties the request to its customer, everything else is anonymous traffic.
	cart := router.Group("/cart", identityMiddleware(deps.CustomerSvc))
	{
		cart.GET("/current_customer_cart", currentCartHandler(deps.CartSvc))
		cart.PUT("/current_customer_cart/add_to_cart/:product_id", addToCartHandler(deps.CartSvc))
		cart.PATCH("/current_customer_cart/change_qty/:qty/:cart_product_id", changeQtyHandler(deps.CartSvc))
		cart.PUT("/current_customer_cart/remove_from_cart/:cart_product_id", removeFromCartHandler(deps.CartSvc))

		cart.GET("", listCartsHandler(deps.CartSvc, deps.CustomerSvc))
		cart.POST("", createCartHandler(deps.CartSvc, deps.CustomerSvc))
		cart.GET("/:cart_id", getCartHandler(deps.CartSvc, deps.CustomerSvc))
		cart.PATCH("/:cart_id", updateCartHandler(deps.CartSvc, deps.CustomerSvc))
		cart.DELETE("/:cart_id", deleteCartHandler(deps.CartSvc))
	}

	return router, nil
}

const customerCtxKey = "currentCustomer"

// identityMiddleware resolves the request identity. An unauthenticated or
// invalid token never errors; the request simply proceeds anonymously.
func identityMiddleware(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		customer, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(customerCtxKey, customer)
		c.Next()
	}
}

func currentCustomer(c *gin.Context) *domain.Customer {
	v, ok := c.Get(customerCtxKey)
	if !ok {
		return nil
	}
	customer, ok := v.(*domain.Customer)
	if !ok {
		return nil
	}
	return customer
}

// currentOwnerID is the cart ownership key: the customer id, or nil for the
// shared anonymous cart.
func currentOwnerID(c *gin.Context) *string {
	customer := currentCustomer(c)
	if customer == nil {
		return nil
	}
	return &customer.ID
}
