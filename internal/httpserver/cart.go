package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"eshop-api/internal/domain"
	cartsvc "eshop-api/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentCartHandler returns the state of the caller's cart, creating it
// lazily on first resolution.
func currentCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.ResolveOrCreate(c.Request.Context(), currentOwnerID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "resolve cart failed"})
			return
		}
		c.JSON(http.StatusOK, toCartView(*cart, currentCustomer(c)))
	}
}

func addToCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("product_id")
		if _, err := uuid.Parse(productID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "product not found"})
			return
		}
		_, created, err := svc.AddToCart(c.Request.Context(), currentOwnerID(c), productID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "add to cart failed"})
			return
		}
		if !created {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "product already in cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "product added to cart"})
	}
}

func changeQtyHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID := c.Param("cart_product_id")
		if _, err := uuid.Parse(lineID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "cart product not found"})
			return
		}
		qty, err := strconv.Atoi(c.Param("qty"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid quantity"})
			return
		}
		if err := svc.ChangeQuantity(c.Request.Context(), lineID, qty); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"detail": "cart product not found"})
			case errors.Is(err, cartsvc.ErrNegativeQuantity):
				c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "change quantity failed"})
			}
			return
		}
		c.Status(http.StatusOK)
	}
}

func removeFromCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID := c.Param("cart_product_id")
		if _, err := uuid.Parse(lineID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "cart product not found"})
			return
		}
		if err := svc.RemoveFromCart(c.Request.Context(), currentOwnerID(c), lineID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "cart product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "remove from cart failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listCartsHandler(svc CartService, customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		carts, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "list carts failed"})
			return
		}
		out := make([]cartView, 0, len(carts))
		for _, cart := range carts {
			owner, err := cartOwner(c, customers, cart)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "list carts failed"})
				return
			}
			out = append(out, toCartView(cart, owner))
		}
		c.JSON(http.StatusOK, out)
	}
}

type createCartRequest struct {
	OwnerID *string `json:"owner_id"`
}

func createCartHandler(svc CartService, customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCartRequest
		// An empty body creates an unowned cart.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
			return
		}
		cart, err := svc.Create(c.Request.Context(), req.OwnerID)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "owner already has an active cart"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "create cart failed"})
			return
		}
		owner, err := cartOwner(c, customers, *cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "create cart failed"})
			return
		}
		c.JSON(http.StatusCreated, toCartView(*cart, owner))
	}
}

func getCartHandler(svc CartService, customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cart_id")
		if _, err := uuid.Parse(cartID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
			return
		}
		cart, err := svc.Get(c.Request.Context(), cartID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "get cart failed"})
			return
		}
		owner, err := cartOwner(c, customers, *cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "get cart failed"})
			return
		}
		c.JSON(http.StatusOK, toCartView(*cart, owner))
	}
}

func updateCartHandler(svc CartService, customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cart_id")
		if _, err := uuid.Parse(cartID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
			return
		}
		var in cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
			return
		}
		cart, err := svc.Update(c.Request.Context(), cartID, in)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		owner, err := cartOwner(c, customers, *cart)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "update cart failed"})
			return
		}
		c.JSON(http.StatusOK, toCartView(*cart, owner))
	}
}

func deleteCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cart_id")
		if _, err := uuid.Parse(cartID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
			return
		}
		if err := svc.Delete(c.Request.Context(), cartID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "cart not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "delete cart failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func cartOwner(c *gin.Context, customers CustomerService, cart domain.Cart) (*domain.Customer, error) {
	if cart.OwnerID == nil {
		return nil, nil
	}
	if cur := currentCustomer(c); cur != nil && cur.ID == *cart.OwnerID {
		return cur, nil
	}
	owner, err := customers.Get(c.Request.Context(), *cart.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return owner, nil
}
