package category

import (
	"context"
	"errors"

	"eshop-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, slug, created_at
FROM categories
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const q = `
SELECT id::text, name, slug, created_at
FROM categories
WHERE id = $1
`
	return r.fetch(ctx, q, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	const q = `
SELECT id::text, name, slug, created_at
FROM categories
WHERE slug = $1
`
	return r.fetch(ctx, q, slug)
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, slug)
VALUES ($1, $2)
RETURNING id::text, created_at
`
	out := domain.Category{Name: c.Name, Slug: c.Slug}
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Slug).Scan(&out.ID, &out.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) fetch(ctx context.Context, q string, arg interface{}) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, q, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
