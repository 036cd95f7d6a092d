package product

import (
	"context"
	"errors"
	"io"
	"log"

	"eshop-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectProduct = `
SELECT p.id::text, p.category_id::text, p.title, COALESCE(p.description, ''), COALESCE(p.image_url, ''), p.price, p.slug, p.created_at,
       c.id::text, c.name, c.slug, c.created_at
FROM products p
JOIN categories c ON c.id = p.category_id
`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+`ORDER BY p.created_at DESC`)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	return r.collect(rows)
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+`WHERE p.category_id = $1 ORDER BY p.created_at DESC`, categoryID)
	if err != nil {
		r.logger.Printf("product repo: list category_id=%s error=%v", categoryID, err)
		return nil, err
	}
	return r.collect(rows)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.fetch(ctx, selectProduct+`WHERE p.id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.fetch(ctx, selectProduct+`WHERE p.slug = $1`, slug)
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, title, description, image_url, price, slug)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
ON CONFLICT (slug) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    price = EXCLUDED.price
RETURNING id::text, created_at
`
	out := p
	err := r.pool.QueryRow(ctx, q, p.CategoryID, p.Title, p.Description, p.ImageURL, p.Price, p.Slug).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted slug=%s id=%s", out.Slug, out.ID)
	return &out, nil
}

func (r *postgresRepo) fetch(ctx context.Context, q, arg string) (*domain.Product, error) {
	var p domain.Product
	var c domain.Category
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.ImageURL, &p.Price, &p.Slug, &p.CreatedAt,
		&c.ID, &c.Name, &c.Slug, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get arg=%s error=%v", arg, err)
		return nil, err
	}
	p.Category = &c
	return &p, nil
}

func (r *postgresRepo) collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		var c domain.Category
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.ImageURL, &p.Price, &p.Slug, &p.CreatedAt,
			&c.ID, &c.Name, &c.Slug, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Category = &c
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
