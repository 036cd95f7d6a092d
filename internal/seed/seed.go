package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	CategorySlug string
	Title        string
	Description  string
	ImageURL     string
	Price        string
	Slug         string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	categories := map[string]string{
		"notebooks":   "Notebooks",
		"smartphones": "Smartphones",
	}
	for slug, name := range categories {
		if err := ensureCategory(ctx, pool, name, slug); err != nil {
			return fmt.Errorf("ensure category %s: %w", slug, err)
		}
	}

	products := []productSeed{
		{
			CategorySlug: "notebooks",
			Title:        "Demo Notebook 14",
			Description:  "Thin and light 14-inch notebook",
			ImageURL:     "https://example.com/images/demo-notebook-14.jpg",
			Price:        "899.00",
			Slug:         "demo-notebook-14",
		},
		{
			CategorySlug: "smartphones",
			Title:        "Demo Phone X",
			Description:  "Mid-range phone with a decent camera",
			ImageURL:     "https://example.com/images/demo-phone-x.jpg",
			Price:        "499.90",
			Slug:         "demo-phone-x",
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}

	return nil
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name, slug string) error {
	const q = `
INSERT INTO categories (name, slug)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
`
	_, err := pool.Exec(ctx, q, name, slug)
	return err
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (category_id, title, description, image_url, price, slug)
SELECT c.id, $2, $3, $4, $5::numeric, $6
FROM categories c
WHERE c.slug = $1
ON CONFLICT (slug) DO UPDATE
SET category_id = EXCLUDED.category_id,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    price = EXCLUDED.price
`
	_, err := pool.Exec(ctx, q, p.CategorySlug, p.Title, p.Description, p.ImageURL, p.Price, p.Slug)
	return err
}
