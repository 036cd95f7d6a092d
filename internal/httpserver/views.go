package httpserver

import (
	"eshop-api/internal/domain"
	"github.com/shopspring/decimal"
)

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type productView struct {
	ID          string          `json:"id"`
	Category    categoryView    `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Slug        string          `json:"slug"`
}

type cartProductView struct {
	ID         string          `json:"id"`
	Product    productView     `json:"product"`
	Qty        int             `json:"qty"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

type ownerView struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	MyUser  string `json:"my_user"`
}

type cartView struct {
	ID               string            `json:"id"`
	Owner            *ownerView        `json:"owner"`
	Products         []cartProductView `json:"products"`
	TotalProducts    int               `json:"total_products"`
	FinalPrice       decimal.Decimal   `json:"final_price"`
	InOrder          bool              `json:"in_order"`
	ForAnonymousUser bool              `json:"for_anonymous_user"`
}

type customerView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	MyUser    string `json:"my_user"`
}

func toCategoryView(c domain.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func toProductView(p domain.Product) productView {
	out := productView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Slug:        p.Slug,
	}
	if p.Category != nil {
		out.Category = toCategoryView(*p.Category)
	} else {
		out.Category = categoryView{ID: p.CategoryID}
	}
	return out
}

func toCartProductView(line domain.CartProduct) cartProductView {
	out := cartProductView{
		ID:         line.ID,
		Qty:        line.Qty,
		FinalPrice: line.FinalPrice,
	}
	if line.Product != nil {
		out.Product = toProductView(*line.Product)
	} else {
		out.Product = productView{ID: line.ProductID}
	}
	return out
}

func toOwnerView(owner *domain.Customer) *ownerView {
	if owner == nil {
		return nil
	}
	return &ownerView{
		ID:      owner.ID,
		Phone:   owner.Phone,
		Address: owner.Address,
		MyUser:  owner.DisplayName(),
	}
}

func toCustomerView(c domain.Customer) customerView {
	return customerView{
		ID:        c.ID,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Address:   c.Address,
		MyUser:    c.DisplayName(),
	}
}

func toCartView(cart domain.Cart, owner *domain.Customer) cartView {
	products := make([]cartProductView, 0, len(cart.Products))
	for _, line := range cart.Products {
		products = append(products, toCartProductView(line))
	}
	return cartView{
		ID:               cart.ID,
		Owner:            toOwnerView(owner),
		Products:         products,
		TotalProducts:    cart.TotalProducts,
		FinalPrice:       cart.FinalPrice,
		InOrder:          cart.InOrder,
		ForAnonymousUser: cart.ForAnonymousUser,
	}
}
