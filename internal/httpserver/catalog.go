package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"eshop-api/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func listCategoriesHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "list categories failed"})
			return
		}
		out := make([]categoryView, 0, len(categories))
		for _, cat := range categories {
			out = append(out, toCategoryView(cat))
		}
		c.JSON(http.StatusOK, out)
	}
}

func getCategoryHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("category_id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "category not found"})
			return
		}
		cat, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "category not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "get category failed"})
			return
		}
		c.JSON(http.StatusOK, toCategoryView(*cat))
	}
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func createCategoryHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Slug) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "name and slug required"})
			return
		}
		cat, err := svc.Create(c.Request.Context(), domain.Category{
			Name: strings.TrimSpace(req.Name),
			Slug: strings.TrimSpace(req.Slug),
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"detail": "category slug already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "create category failed"})
			return
		}
		c.JSON(http.StatusCreated, toCategoryView(*cat))
	}
}

func listProductsHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID := c.Query("category_id")
		if categoryID != "" {
			if _, err := uuid.Parse(categoryID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid category_id"})
				return
			}
		}
		products, err := svc.List(c.Request.Context(), categoryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "list products failed"})
			return
		}
		out := make([]productView, 0, len(products))
		for _, p := range products {
			out = append(out, toProductView(p))
		}
		c.JSON(http.StatusOK, out)
	}
}

func getProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("product_id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "product not found"})
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "get product failed"})
			return
		}
		c.JSON(http.StatusOK, toProductView(*p))
	}
}

type createProductRequest struct {
	CategorySlug string          `json:"category_slug"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	Price        decimal.Decimal `json:"price"`
	Slug         string          `json:"slug"`
}

func createProductHandler(svc ProductService, categories CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Slug) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "title and slug required"})
			return
		}
		if req.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "price must not be negative"})
			return
		}
		categoryID, err := resolveCategoryID(c, categories, req.CategorySlug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "unknown category"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "create product failed"})
			return
		}
		p, err := svc.Upsert(c.Request.Context(), domain.Product{
			CategoryID:  categoryID,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Price:       req.Price,
			Slug:        strings.TrimSpace(req.Slug),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "create product failed"})
			return
		}
		c.JSON(http.StatusCreated, toProductView(*p))
	}
}

func resolveCategoryID(c *gin.Context, categories CategoryService, slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", domain.ErrNotFound
	}
	cat, err := categories.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		return "", err
	}
	return cat.ID, nil
}
